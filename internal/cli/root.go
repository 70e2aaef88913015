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
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guided-traffic/secret-generator/pkg/config"
	"github.com/guided-traffic/secret-generator/pkg/export"
	"github.com/guided-traffic/secret-generator/pkg/generator"
	"github.com/guided-traffic/secret-generator/pkg/history"
)

// app holds the state shared by all commands of one invocation
type app struct {
	configPath string
	verbose    bool
	debug      bool
	noColor    bool

	logger    *zap.SugaredLogger
	config    *config.Config
	generator *generator.SecretGenerator
	history   *history.History
	exporter  *export.Exporter
	clock     history.Clock
}

// Option customizes the command tree
type Option func(*app)

// WithClock sets the clock used for history entries and export timestamps
func WithClock(clock history.Clock) Option {
	return func(a *app) {
		a.clock = clock
	}
}

// WithGenerator replaces the secret generator
func WithGenerator(g *generator.SecretGenerator) Option {
	return func(a *app) {
		a.generator = g
	}
}

// NewRootCommand builds the secretgen command tree
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		clock:     history.RealClock{},
		generator: generator.NewSecretGenerator(),
	}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "secretgen",
		Short: "secretgen - generate secrets and estimate their strength.",
		Long: `secretgen generates cryptographically secure secrets and estimates
the strength of existing ones.

Features:
  - Ten generation algorithms, from alphanumeric strings to UUIDs and API keys
  - Custom character sets with optional removal of look-alike characters
  - Strength scoring with entropy and actionable feedback
  - Text, JSON and YAML exports
  - A Kubernetes operator that fills annotated Secrets

Run 'secretgen help <command>' for more details on a specific command.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newGenerateCommand(a))
	rootCmd.AddCommand(newStrengthCommand(a))
	rootCmd.AddCommand(newAlgorithmsCommand(a))
	rootCmd.AddCommand(newOperatorCommand(a))

	return rootCmd
}

// init sets up logging and loads the configuration
func (a *app) init(cmd *cobra.Command) error {
	if a.noColor {
		color.NoColor = true
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.verbose, a.debug)
	a.logger.Debugw("Initializing command", "command", cmd.Name(), "verbose", a.verbose, "debug", a.debug)

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.config = cfg
	a.logger.Debugw("Loaded configuration", "path", a.configPath, "algorithm", cfg.Defaults.Algorithm)

	a.history = history.New(cfg.History.MaxItems, history.WithClock(a.clock))
	a.exporter = export.NewExporter(a.clock)

	return nil
}
