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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/guided-traffic/secret-generator/pkg/config"
	"github.com/guided-traffic/secret-generator/pkg/export"
	"github.com/guided-traffic/secret-generator/pkg/generator"
	"github.com/guided-traffic/secret-generator/pkg/history"
	"github.com/guided-traffic/secret-generator/pkg/strength"
)

type generateOptions struct {
	algorithm      string
	length         int
	symbols        bool
	segments       int
	segmentLength  int
	bytes          int
	upper          bool
	lower          bool
	numbers        bool
	pwSymbols      bool
	charset        string
	excludeSimilar bool
	count          int
	showStrength   bool
	exportFormat   string
	output         string
	exportHistory  bool
	metadata       bool
}

func newGenerateCommand(a *app) *cobra.Command {
	o := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one or more secrets",
		Long: `Generates secrets with one of the supported algorithms.

Flags override the generator defaults from the configuration file. With
--count greater than one the secrets are generated concurrently. With
--export or --output the result is written as a txt, json or yaml document;
if --output names a directory a file name is chosen automatically.`,
		Example: `  secretgen generate
  secretgen generate --algorithm password --length 24 --pw-symbols
  secretgen generate --algorithm api-key --segments 6 --segment-length 5
  secretgen generate --charset ABCDEF0123456789 --exclude-similar --length 12
  secretgen generate --count 10 --export json --output ./exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, a)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.algorithm, "algorithm", "a", "", "generation algorithm (see 'secretgen algorithms')")
	flags.IntVarP(&o.length, "length", "l", generator.DefaultLength, "length of the generated secret")
	flags.BoolVar(&o.symbols, "symbols", true, "include symbols in with-symbols secrets")
	flags.IntVar(&o.segments, "segments", generator.DefaultSegments, "number of api-key segments")
	flags.IntVar(&o.segmentLength, "segment-length", generator.DefaultSegmentLength, "length of each api-key segment")
	flags.IntVar(&o.bytes, "bytes", generator.DefaultBytes, "number of random bytes for binary-key secrets")
	flags.BoolVar(&o.upper, "upper", true, "require uppercase letters in passwords")
	flags.BoolVar(&o.lower, "lower", true, "require lowercase letters in passwords")
	flags.BoolVar(&o.numbers, "numbers", true, "require numbers in passwords")
	flags.BoolVar(&o.pwSymbols, "pw-symbols", false, "require symbols in passwords")
	flags.StringVar(&o.charset, "charset", "", "custom character set, overrides the algorithm alphabet")
	flags.BoolVar(&o.excludeSimilar, "exclude-similar", false, "remove look-alike characters from the custom character set")
	flags.IntVarP(&o.count, "count", "n", 1, "number of secrets to generate")
	flags.BoolVarP(&o.showStrength, "strength", "s", false, "print a strength estimate for each secret")
	flags.StringVarP(&o.exportFormat, "export", "e", "", "export format: txt, json or yaml")
	flags.StringVarP(&o.output, "output", "o", "", "write the export to this file or directory")
	flags.BoolVar(&o.exportHistory, "history", false, "export the generated secrets as a history document with strength details")
	flags.BoolVar(&o.metadata, "metadata", true, "include timestamps and strength details in txt exports")

	return cmd
}

// generatorConfig overlays the flags that were set on the configured defaults
func (o *generateOptions) generatorConfig(flags *pflag.FlagSet, defaults config.GeneratorDefaults) (generator.Config, error) {
	cfg, err := defaults.GeneratorConfig()
	if err != nil {
		return cfg, err
	}

	if flags.Changed("algorithm") {
		algorithm, err := generator.ParseAlgorithm(o.algorithm)
		if err != nil {
			return cfg, err
		}
		cfg.Algorithm = algorithm
	}
	if flags.Changed("length") {
		cfg.Length = o.length
	}
	if flags.Changed("symbols") {
		cfg.IncludeSymbols = o.symbols
	}
	if flags.Changed("segments") {
		cfg.Segments = o.segments
	}
	if flags.Changed("segment-length") {
		cfg.SegmentLength = o.segmentLength
	}
	if flags.Changed("bytes") {
		cfg.Bytes = o.bytes
	}
	if flags.Changed("upper") {
		cfg.Password.Uppercase = o.upper
	}
	if flags.Changed("lower") {
		cfg.Password.Lowercase = o.lower
	}
	if flags.Changed("numbers") {
		cfg.Password.Numbers = o.numbers
	}
	if flags.Changed("pw-symbols") {
		cfg.Password.Symbols = o.pwSymbols
	}
	if flags.Changed("charset") {
		cfg.CustomCharset = o.charset
		cfg.UseCustomCharset = o.charset != ""
	}
	if flags.Changed("exclude-similar") {
		cfg.ExcludeSimilar = o.excludeSimilar
	}

	return cfg, cfg.Validate()
}

func (o *generateOptions) run(cmd *cobra.Command, a *app) error {
	cfg, err := o.generatorConfig(cmd.Flags(), a.config.Defaults)
	if err != nil {
		return err
	}

	if o.count < 1 {
		return fmt.Errorf("%w: count must be at least 1, got %d", generator.ErrInvalidConfig, o.count)
	}
	if o.count > a.config.Batch.MaxCount {
		return fmt.Errorf("%w: count %d exceeds the batch limit of %d", generator.ErrInvalidConfig, o.count, a.config.Batch.MaxCount)
	}

	a.logger.Debugw("Generating secrets", "algorithm", cfg.Algorithm, "length", cfg.Length, "count", o.count,
		"customCharset", cfg.UseCustomCharset)

	var secrets []string
	if o.count == 1 {
		var secret string
		secret, err = a.generator.Generate(cfg)
		secrets = []string{secret}
	} else {
		secrets, err = a.generator.GenerateBatch(cmd.Context(), cfg, o.count, a.config.Batch.Concurrency)
	}
	if err != nil {
		a.logger.Errorw("Failed to generate secrets", "algorithm", cfg.Algorithm, "error", err)
		return err
	}
	a.logger.Infow("Generated secrets", "algorithm", cfg.Algorithm, "count", len(secrets))

	entries := make([]history.Entry, 0, len(secrets))
	results := make([]strength.Result, 0, len(secrets))
	for _, secret := range secrets {
		result := strength.Estimate(secret)
		summary := result.Summary()
		entries = append(entries, a.history.Add(secret, string(cfg.Algorithm), &summary))
		results = append(results, result)
	}

	if o.exportFormat == "" && o.output == "" {
		o.print(cmd.OutOrStdout(), entries, results)
		return nil
	}

	return o.export(cmd, a, cfg.Algorithm, entries)
}

// print writes the secrets one per line, followed by their estimates if requested
func (o *generateOptions) print(w io.Writer, entries []history.Entry, results []strength.Result) {
	for i, entry := range entries {
		fmt.Fprintln(w, entry.Secret)
		if o.showStrength {
			printStrength(w, results[i])
			if i < len(entries)-1 {
				fmt.Fprintln(w)
			}
		}
	}
}

func (o *generateOptions) export(cmd *cobra.Command, a *app, algorithm generator.Algorithm, entries []history.Entry) (err error) {
	format := export.FormatText
	if o.exportFormat != "" {
		format, err = export.ParseFormat(o.exportFormat)
		if err != nil {
			return err
		}
	}

	kind := export.KindSecret
	switch {
	case o.exportHistory:
		kind = export.KindHistory
	case len(entries) > 1:
		kind = export.KindBatch
	}

	w := cmd.OutOrStdout()
	if o.output != "" && o.output != "-" {
		path := o.output
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			path = filepath.Join(path, a.exporter.Filename(kind, string(algorithm), format))
		}

		f, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("failed to create export file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close export file: %w", closeErr)
			}
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d secret(s) to %s\n", len(entries), path)
			}
		}()
		w = f

		a.logger.Infow("Writing export", "path", path, "format", format, "kind", kind)
	}

	opts := export.Options{Format: format, IncludeMetadata: o.metadata}
	switch kind {
	case export.KindHistory:
		return a.exporter.History(w, a.history.List(), opts)
	case export.KindBatch:
		items := make([]export.Item, 0, len(entries))
		for _, entry := range entries {
			items = append(items, export.Item{
				ID:        entry.ID,
				Secret:    entry.Secret,
				Algorithm: entry.Algorithm,
				Timestamp: entry.Timestamp,
			})
		}
		return a.exporter.Batch(w, items, opts)
	default:
		return a.exporter.Secret(w, entries[0].Secret, entries[0].Algorithm, entries[0].Timestamp, opts)
	}
}
