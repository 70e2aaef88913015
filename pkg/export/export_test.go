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
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/guided-traffic/secret-generator/pkg/history"
	"github.com/guided-traffic/secret-generator/pkg/strength"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var (
	exportTime    = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	generatedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newTestExporter() *Exporter {
	return NewExporter(fixedClock{now: exportTime})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input       string
		expected    Format
		expectError bool
	}{
		{"txt", FormatText, false},
		{"TEXT", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{" yaml ", FormatYAML, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseFormat(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSecretText(t *testing.T) {
	var buf bytes.Buffer
	err := newTestExporter().Secret(&buf, "s3cr3t", "password", generatedTime, Options{Format: FormatText, IncludeMetadata: true})
	require.NoError(t, err)

	expected := "Secret Generator Export\n" +
		"Algorithm: password\n" +
		"Generated: 2026-03-01T12:00:00.000Z\n" +
		"Exported: 2026-03-01T12:30:00.000Z\n" +
		"\n" + strings.Repeat("=", 50) + "\n\n" +
		"s3cr3t"
	assert.Equal(t, expected, buf.String())
}

func TestSecretTextWithoutMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Secret(&buf, "s3cr3t", "password", generatedTime, Options{}))
	assert.Equal(t, "s3cr3t", buf.String())
}

func TestSecretJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Secret(&buf, "abc", "uuid", generatedTime, Options{Format: FormatJSON}))

	var doc map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, map[string]string{
		"secret":     "abc",
		"algorithm":  "uuid",
		"timestamp":  "2026-03-01T12:00:00.000Z",
		"exportedAt": "2026-03-01T12:30:00.000Z",
	}, doc)
}

func testEntries() []history.Entry {
	return []history.Entry{
		{
			ID:        "b",
			Secret:    "second",
			Algorithm: "password",
			Timestamp: generatedTime.Add(time.Minute),
			Strength:  &strength.Summary{Score: 72, Strength: strength.Strong, Entropy: 95.3},
		},
		{
			ID:        "a",
			Secret:    "first",
			Algorithm: "hexadecimal",
			Timestamp: generatedTime,
		},
	}
}

func TestHistoryText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().History(&buf, testEntries(), Options{Format: FormatText, IncludeMetadata: true}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Secret Generator - History Export\nExported: 2026-03-01T12:30:00.000Z\nTotal Secrets: 2\n"))
	assert.Contains(t, out, "[1] PASSWORD\nGenerated: 2026-03-01T12:01:00.000Z\nStrength: strong (Score: 72/100, Entropy: 95.3 bits)\n\nsecond\n")
	assert.Contains(t, out, "[2] HEXADECIMAL\nGenerated: 2026-03-01T12:00:00.000Z\n\nfirst\n")
	assert.Equal(t, 2, strings.Count(out, strings.Repeat("-", 60)))
}

func TestHistoryTextWithoutMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().History(&buf, testEntries(), Options{Format: FormatText}))

	out := buf.String()
	assert.Contains(t, out, "[1] PASSWORD\nsecond\n")
	assert.NotContains(t, out, "Strength:")
}

func TestHistoryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().History(&buf, testEntries(), Options{Format: FormatJSON}))

	var doc historyDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2026-03-01T12:30:00.000Z", doc.ExportedAt)
	assert.Equal(t, 2, doc.TotalSecrets)
	require.Len(t, doc.Secrets, 2)
	assert.Equal(t, "b", doc.Secrets[0].ID)
	assert.Equal(t, generatedTime.Add(time.Minute).UnixMilli(), doc.Secrets[0].Timestamp)
	require.NotNil(t, doc.Secrets[0].Strength)
	assert.Equal(t, strength.Strong, doc.Secrets[0].Strength.Strength)
	assert.Nil(t, doc.Secrets[1].Strength)
	assert.NotContains(t, buf.String(), `"strength": null`)
}

func TestHistoryYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().History(&buf, testEntries(), Options{Format: FormatYAML}))

	var doc historyDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc.TotalSecrets)
	assert.Equal(t, "first", doc.Secrets[1].Secret)
	assert.Equal(t, "2026-03-01T12:00:00.000Z", doc.Secrets[1].GeneratedAt)
}

func TestBatch(t *testing.T) {
	items := []Item{
		{ID: "1", Secret: "aaaa", Algorithm: "numeric-pin", Timestamp: generatedTime},
		{ID: "2", Secret: "bbbb", Algorithm: "numeric-pin", Timestamp: generatedTime},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, newTestExporter().Batch(&buf, items, Options{Format: FormatJSON}))

		var doc batchDocument
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, "numeric-pin", doc.Algorithm)
		assert.Equal(t, 2, doc.TotalSecrets)
		assert.Equal(t, 1, doc.Secrets[0].Index)
		assert.Equal(t, 2, doc.Secrets[1].Index)
		assert.Equal(t, "bbbb", doc.Secrets[1].Secret)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, newTestExporter().Batch(&buf, items, Options{Format: FormatText, IncludeMetadata: true}))

		out := buf.String()
		assert.Contains(t, out, "Algorithm: numeric-pin\nTotal Secrets: 2\n")
		assert.Contains(t, out, "[2] Generated: 2026-03-01T12:00:00.000Z\n\nbbbb\n")
	})

	t.Run("empty batch", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, newTestExporter().Batch(&buf, nil, Options{Format: FormatText}))
		assert.Contains(t, buf.String(), "Algorithm: unknown\nTotal Secrets: 0\n")
	})
}

func TestUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := newTestExporter().Secret(&buf, "x", "uuid", generatedTime, Options{Format: "csv"})
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	e := newTestExporter()
	stamp := "1772368200000"
	assert.Equal(t, "secret-uuid-"+stamp+".txt", e.Filename(KindSecret, "uuid", FormatText))
	assert.Equal(t, "secret-history-"+stamp+".json", e.Filename(KindHistory, "", FormatJSON))
	assert.Equal(t, "batch-secrets-"+stamp+".yaml", e.Filename(KindBatch, "uuid", FormatYAML))
}
