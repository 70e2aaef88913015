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

package generator

import "fmt"

// Default values applied by DefaultConfig
const (
	DefaultLength         = 32
	DefaultPasswordLength = 16
	DefaultPINLength      = 6
	DefaultSegments       = 4
	DefaultSegmentLength  = 4
	DefaultBytes          = 16
)

// Upper bounds on the size of a single secret
const (
	// MaxLength bounds Length and the total api-key length (Segments*SegmentLength)
	MaxLength = 1 << 16
	// MaxBytes bounds the number of random bytes drawn in one call
	MaxBytes = 1 << 16
)

// PasswordOptions selects the character classes a password must contain
type PasswordOptions struct {
	Uppercase bool `json:"uppercase" yaml:"uppercase"`
	Lowercase bool `json:"lowercase" yaml:"lowercase"`
	Numbers   bool `json:"numbers" yaml:"numbers"`
	Symbols   bool `json:"symbols" yaml:"symbols"`
}

// DefaultPasswordOptions enables uppercase, lowercase and numbers
func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{
		Uppercase: true,
		Lowercase: true,
		Numbers:   true,
		Symbols:   false,
	}
}

// classes returns the enabled character classes in lowercase, uppercase, numbers, symbols order
func (o PasswordOptions) classes() []string {
	var classes []string
	if o.Lowercase {
		classes = append(classes, Lowercase)
	}
	if o.Uppercase {
		classes = append(classes, Uppercase)
	}
	if o.Numbers {
		classes = append(classes, Digits)
	}
	if o.Symbols {
		classes = append(classes, Symbols)
	}
	return classes
}

// Config is the input of a single Generate call. Which fields matter depends on Algorithm.
type Config struct {
	Algorithm Algorithm
	// Length is the number of characters for the character based algorithms
	Length int
	// IncludeSymbols extends the with-symbols alphabet with Symbols
	IncludeSymbols bool
	// Segments and SegmentLength shape api-key output
	Segments      int
	SegmentLength int
	// Bytes is the number of random bytes drawn by binary-key
	Bytes int
	// Password holds the required classes for the password algorithm
	Password PasswordOptions

	// CustomCharset replaces the algorithm's alphabet when UseCustomCharset is set
	// and the set is non-empty.
	CustomCharset    string
	UseCustomCharset bool
	// ExcludeSimilar removes visually confusable characters from CustomCharset
	ExcludeSimilar bool
}

// DefaultConfig returns a config with the default value of every field
func DefaultConfig() Config {
	return Config{
		Algorithm:      DefaultAlgorithm,
		Length:         DefaultLength,
		IncludeSymbols: true,
		Segments:       DefaultSegments,
		SegmentLength:  DefaultSegmentLength,
		Bytes:          DefaultBytes,
		Password:       DefaultPasswordOptions(),
	}
}

// customCharsetActive reports whether the custom character set overrides the algorithm
func (c Config) customCharsetActive() bool {
	return c.UseCustomCharset && c.CustomCharset != ""
}

// Validate checks the structural parameters of the config.
// Zero values are accepted and produce empty output for the length driven algorithms.
func (c Config) Validate() error {
	if c.Algorithm != "" && !c.Algorithm.Valid() {
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	}
	if err := checkSize("length", c.Length, MaxLength); err != nil {
		return err
	}
	if err := checkAPIKeySize(c.Segments, c.SegmentLength); err != nil {
		return err
	}
	return checkSize("bytes", c.Bytes, MaxBytes)
}

// checkSize rejects n outside [0, limit]
func checkSize(name string, n, limit int) error {
	if n < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidConfig, name, n)
	}
	if n > limit {
		return fmt.Errorf("%w: %s must not exceed %d, got %d", ErrInvalidConfig, name, limit, n)
	}
	return nil
}

// checkAPIKeySize bounds the segment counts and the total key length
func checkAPIKeySize(segments, segmentLength int) error {
	if err := checkSize("segments", segments, MaxLength); err != nil {
		return err
	}
	if err := checkSize("segment length", segmentLength, MaxLength); err != nil {
		return err
	}
	if int64(segments)*int64(segmentLength) > MaxLength {
		return fmt.Errorf("%w: api key length %d x %d exceeds %d", ErrInvalidConfig, segments, segmentLength, MaxLength)
	}
	return nil
}
