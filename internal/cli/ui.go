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
	"io"

	"github.com/fatih/color"

	"github.com/guided-traffic/secret-generator/pkg/strength"
)

var (
	weakColor       = color.New(color.FgRed, color.Bold)
	mediumColor     = color.New(color.FgYellow)
	strongColor     = color.New(color.FgGreen)
	veryStrongColor = color.New(color.FgGreen, color.Bold)
	mutedColor      = color.New(color.Faint)
)

// tierColor returns the color used to print a strength tier
func tierColor(level strength.Level) *color.Color {
	switch level {
	case strength.VeryStrong:
		return veryStrongColor
	case strength.Strong:
		return strongColor
	case strength.Medium:
		return mediumColor
	default:
		return weakColor
	}
}

// printStrength writes a strength estimate in a human readable layout
func printStrength(w io.Writer, result strength.Result) {
	fmt.Fprintf(w, "Strength: %s (%d/100)\n", tierColor(result.Strength).Sprint(result.Strength), result.Score)
	fmt.Fprintf(w, "Entropy:  %.1f bits\n", result.Entropy)
	if len(result.Feedback) == 0 {
		return
	}
	fmt.Fprintln(w, "Feedback:")
	for _, line := range result.Feedback {
		fmt.Fprintf(w, "  %s %s\n", mutedColor.Sprint("-"), line)
	}
}
