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

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/guided-traffic/secret-generator/pkg/history"
	"github.com/guided-traffic/secret-generator/pkg/strength"
)

// Format is an export file format
type Format string

// Supported formats
const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// timestampLayout renders timestamps in UTC with millisecond precision
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ParseFormat parses a format name, accepting "text" and "yml" as aliases
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format '%s', must be one of: txt, json, yaml", s)
	}
}

// isText reports whether f is the plain text format, which is also the zero value
func (f Format) isText() bool {
	return f == FormatText || f == ""
}

// Options controls an export
type Options struct {
	Format Format
	// IncludeMetadata adds timestamps and strength details to text exports
	IncludeMetadata bool
}

// Item is a single secret of a batch
type Item struct {
	ID        string
	Secret    string
	Algorithm string
	Timestamp time.Time
}

// Exporter renders secrets into export documents
type Exporter struct {
	clock history.Clock
}

// NewExporter creates an Exporter. A nil clock means the real time.
func NewExporter(clock history.Clock) *Exporter {
	if clock == nil {
		clock = history.RealClock{}
	}
	return &Exporter{clock: clock}
}

type secretDocument struct {
	Secret     string `json:"secret" yaml:"secret"`
	Algorithm  string `json:"algorithm" yaml:"algorithm"`
	Timestamp  string `json:"timestamp" yaml:"timestamp"`
	ExportedAt string `json:"exportedAt" yaml:"exportedAt"`
}

type historyDocument struct {
	ExportedAt   string          `json:"exportedAt" yaml:"exportedAt"`
	TotalSecrets int             `json:"totalSecrets" yaml:"totalSecrets"`
	Secrets      []historyRecord `json:"secrets" yaml:"secrets"`
}

type historyRecord struct {
	ID          string            `json:"id" yaml:"id"`
	Secret      string            `json:"secret" yaml:"secret"`
	Algorithm   string            `json:"algorithm" yaml:"algorithm"`
	Timestamp   int64             `json:"timestamp" yaml:"timestamp"`
	GeneratedAt string            `json:"generatedAt" yaml:"generatedAt"`
	Strength    *strength.Summary `json:"strength,omitempty" yaml:"strength,omitempty"`
}

type batchDocument struct {
	ExportedAt   string        `json:"exportedAt" yaml:"exportedAt"`
	TotalSecrets int           `json:"totalSecrets" yaml:"totalSecrets"`
	Algorithm    string        `json:"algorithm" yaml:"algorithm"`
	Secrets      []batchRecord `json:"secrets" yaml:"secrets"`
}

type batchRecord struct {
	ID          string `json:"id" yaml:"id"`
	Index       int    `json:"index" yaml:"index"`
	Secret      string `json:"secret" yaml:"secret"`
	Algorithm   string `json:"algorithm" yaml:"algorithm"`
	Timestamp   int64  `json:"timestamp" yaml:"timestamp"`
	GeneratedAt string `json:"generatedAt" yaml:"generatedAt"`
}

// Secret exports a single secret
func (e *Exporter) Secret(w io.Writer, secret, algorithm string, generatedAt time.Time, opts Options) error {
	now := formatTime(e.clock.Now())

	if !opts.Format.isText() {
		return encode(w, opts.Format, secretDocument{
			Secret:     secret,
			Algorithm:  algorithm,
			Timestamp:  formatTime(generatedAt),
			ExportedAt: now,
		})
	}

	var b strings.Builder
	if opts.IncludeMetadata {
		b.WriteString("Secret Generator Export\n")
		fmt.Fprintf(&b, "Algorithm: %s\n", algorithm)
		fmt.Fprintf(&b, "Generated: %s\n", formatTime(generatedAt))
		fmt.Fprintf(&b, "Exported: %s\n", now)
		fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("=", 50))
	}
	b.WriteString(secret)

	_, err := io.WriteString(w, b.String())
	return err
}

// History exports history entries in the given order
func (e *Exporter) History(w io.Writer, entries []history.Entry, opts Options) error {
	now := formatTime(e.clock.Now())

	if !opts.Format.isText() {
		doc := historyDocument{
			ExportedAt:   now,
			TotalSecrets: len(entries),
			Secrets:      make([]historyRecord, 0, len(entries)),
		}
		for _, entry := range entries {
			doc.Secrets = append(doc.Secrets, historyRecord{
				ID:          entry.ID,
				Secret:      entry.Secret,
				Algorithm:   entry.Algorithm,
				Timestamp:   entry.Timestamp.UnixMilli(),
				GeneratedAt: formatTime(entry.Timestamp),
				Strength:    entry.Strength,
			})
		}
		return encode(w, opts.Format, doc)
	}

	var b strings.Builder
	b.WriteString("Secret Generator - History Export\n")
	fmt.Fprintf(&b, "Exported: %s\n", now)
	fmt.Fprintf(&b, "Total Secrets: %d\n", len(entries))
	fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("=", 60))

	for i, entry := range entries {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.ToUpper(entry.Algorithm))
		if opts.IncludeMetadata {
			fmt.Fprintf(&b, "Generated: %s\n", formatTime(entry.Timestamp))
			if entry.Strength != nil {
				fmt.Fprintf(&b, "Strength: %s (Score: %d/100, Entropy: %s bits)\n",
					entry.Strength.Strength, entry.Strength.Score, formatEntropy(entry.Strength.Entropy))
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", entry.Secret)
		fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("-", 60))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Batch exports the secrets of one batch
func (e *Exporter) Batch(w io.Writer, items []Item, opts Options) error {
	now := formatTime(e.clock.Now())
	algorithm := "unknown"
	if len(items) > 0 && items[0].Algorithm != "" {
		algorithm = items[0].Algorithm
	}

	if !opts.Format.isText() {
		doc := batchDocument{
			ExportedAt:   now,
			TotalSecrets: len(items),
			Algorithm:    algorithm,
			Secrets:      make([]batchRecord, 0, len(items)),
		}
		for i, item := range items {
			doc.Secrets = append(doc.Secrets, batchRecord{
				ID:          item.ID,
				Index:       i + 1,
				Secret:      item.Secret,
				Algorithm:   item.Algorithm,
				Timestamp:   item.Timestamp.UnixMilli(),
				GeneratedAt: formatTime(item.Timestamp),
			})
		}
		return encode(w, opts.Format, doc)
	}

	var b strings.Builder
	b.WriteString("Secret Generator - Batch Export\n")
	fmt.Fprintf(&b, "Exported: %s\n", now)
	fmt.Fprintf(&b, "Algorithm: %s\n", algorithm)
	fmt.Fprintf(&b, "Total Secrets: %d\n", len(items))
	fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("=", 60))

	for i, item := range items {
		if opts.IncludeMetadata {
			fmt.Fprintf(&b, "[%d] Generated: %s\n\n", i+1, formatTime(item.Timestamp))
		}
		fmt.Fprintf(&b, "%s\n", item.Secret)
		fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("-", 60))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Kind identifies what an export contains, used to build file names
type Kind string

// Export kinds
const (
	KindSecret  Kind = "secret"
	KindHistory Kind = "history"
	KindBatch   Kind = "batch"
)

// Filename returns the default file name for an export created now
func (e *Exporter) Filename(kind Kind, algorithm string, format Format) string {
	stamp := e.clock.Now().UnixMilli()
	switch kind {
	case KindHistory:
		return fmt.Sprintf("secret-history-%d.%s", stamp, format)
	case KindBatch:
		return fmt.Sprintf("batch-secrets-%d.%s", stamp, format)
	default:
		return fmt.Sprintf("secret-%s-%d.%s", algorithm, stamp, format)
	}
}

// encode writes v as an indented JSON or YAML document
func encode(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json export: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml export: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format '%s'", format)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatEntropy(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
