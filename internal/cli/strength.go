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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/guided-traffic/secret-generator/pkg/strength"
)

func newStrengthCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "strength [secret]",
		Short: "Estimate the strength of a secret",
		Long: `Scores a secret from 0 to 100, assigns a tier (weak, medium, strong,
very-strong) and estimates its entropy in bits. The score is a heuristic.

If no argument is given the secret is read from standard input, so it
does not end up in the shell history. A single trailing newline is ignored.`,
		Example: `  secretgen strength 'correct horse battery staple'
  pass show db/admin | secretgen strength --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read secret from stdin: %w", err)
				}
				secret = strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
			}

			result := strength.Estimate(secret)
			a.logger.Debugw("Estimated strength", "score", result.Score, "strength", result.Strength)

			w := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "", "text":
				printStrength(w, result)
				return nil
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(result); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unsupported output format '%s', must be one of: text, json, yaml", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")

	return cmd
}
