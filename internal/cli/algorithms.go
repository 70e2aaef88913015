/*
Copyright 2025 Guided Traffic.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/guided-traffic/secret-generator/pkg/generator"
)

func newAlgorithmsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the supported generation algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configured, err := generator.ParseAlgorithm(a.config.Defaults.Algorithm)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, algorithm := range generator.Algorithms() {
				marker := ""
				if algorithm == configured {
					marker = mutedColor.Sprint("(default)")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", algorithm, algorithm.Description(), marker)
			}
			return tw.Flush()
		},
	}
}
