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

import (
	"fmt"
	"strings"
)

// Algorithm selects the generation rule applied by Generate
type Algorithm string

// Supported algorithms
const (
	AlgorithmAlphanumeric Algorithm = "alphanumeric"
	AlgorithmWithSymbols  Algorithm = "with-symbols"
	AlgorithmHexadecimal  Algorithm = "hexadecimal"
	AlgorithmBase64       Algorithm = "base64"
	AlgorithmUUID         Algorithm = "uuid"
	AlgorithmSecureRandom Algorithm = "secure-random"
	AlgorithmAPIKey       Algorithm = "api-key"
	AlgorithmNumericPIN   Algorithm = "numeric-pin"
	AlgorithmPassword     Algorithm = "password"
	AlgorithmBinaryKey    Algorithm = "binary-key"
)

// DefaultAlgorithm is used when a config leaves the algorithm empty
const DefaultAlgorithm = AlgorithmAlphanumeric

var algorithms = []Algorithm{
	AlgorithmAlphanumeric,
	AlgorithmWithSymbols,
	AlgorithmHexadecimal,
	AlgorithmBase64,
	AlgorithmUUID,
	AlgorithmSecureRandom,
	AlgorithmAPIKey,
	AlgorithmNumericPIN,
	AlgorithmPassword,
	AlgorithmBinaryKey,
}

// Algorithms returns every supported algorithm in display order
func Algorithms() []Algorithm {
	out := make([]Algorithm, len(algorithms))
	copy(out, algorithms)
	return out
}

// Valid reports whether a is one of the supported algorithms
func (a Algorithm) Valid() bool {
	for _, known := range algorithms {
		if a == known {
			return true
		}
	}
	return false
}

// String returns the algorithm tag
func (a Algorithm) String() string {
	return string(a)
}

// Description returns a short human-readable description of the algorithm
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmAlphanumeric:
		return "letters and digits"
	case AlgorithmWithSymbols:
		return "letters, digits and punctuation"
	case AlgorithmHexadecimal:
		return "lowercase hexadecimal digits"
	case AlgorithmBase64:
		return "characters from the base64 alphabet"
	case AlgorithmUUID:
		return "random version 4 UUID"
	case AlgorithmSecureRandom:
		return "URL-safe base64 of random bytes"
	case AlgorithmAPIKey:
		return "hyphen separated alphanumeric segments"
	case AlgorithmNumericPIN:
		return "decimal digits"
	case AlgorithmPassword:
		return "password with required character classes"
	case AlgorithmBinaryKey:
		return "random bytes rendered as hex"
	default:
		return ""
	}
}

// ParseAlgorithm parses an algorithm tag. Matching is case-insensitive and
// an empty string yields DefaultAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	normalized := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if normalized == "" {
		return DefaultAlgorithm, nil
	}
	if !normalized.Valid() {
		return "", fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, s)
	}
	return normalized, nil
}
