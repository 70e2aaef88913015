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
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for secret generation
type Generator interface {
	// Generate generates a secret according to the config
	Generate(cfg Config) (string, error)
	// GenerateStringWithCharset generates a random string with a custom charset
	GenerateStringWithCharset(length int, charset string) (string, error)
	// GenerateBytes generates random bytes of the specified length
	GenerateBytes(length int) ([]byte, error)
}

// SecretGenerator implements the Generator interface on top of a cryptographically
// secure random source. It holds no state besides that source.
type SecretGenerator struct {
	// rand is the random source, crypto/rand.Reader unless overridden
	rand io.Reader
}

// NewSecretGenerator creates a new SecretGenerator reading from crypto/rand
func NewSecretGenerator() *SecretGenerator {
	return &SecretGenerator{
		rand: rand.Reader,
	}
}

// NewSecretGeneratorWithReader creates a SecretGenerator reading from r.
// r must be a CSPRNG outside of tests, and must be safe for concurrent use
// when the generator is shared between goroutines.
func NewSecretGeneratorWithReader(r io.Reader) *SecretGenerator {
	return &SecretGenerator{
		rand: r,
	}
}

// Generate generates a secret according to cfg. A custom character set, when active,
// takes precedence over the algorithm. On error no partial output is returned.
func (g *SecretGenerator) Generate(cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if cfg.customCharsetActive() {
		return g.GenerateWithCustomCharset(cfg.Length, cfg.CustomCharset, cfg.ExcludeSimilar)
	}

	switch cfg.Algorithm {
	case AlgorithmAlphanumeric, "":
		return g.GenerateStringWithCharset(cfg.Length, AlphanumericCharset)
	case AlgorithmWithSymbols:
		if cfg.IncludeSymbols {
			return g.GenerateStringWithCharset(cfg.Length, AlphanumericWithSymbolsCharset)
		}
		return g.GenerateStringWithCharset(cfg.Length, AlphanumericCharset)
	case AlgorithmHexadecimal:
		return g.GenerateStringWithCharset(cfg.Length, HexadecimalCharset)
	case AlgorithmBase64:
		return g.GenerateStringWithCharset(cfg.Length, Base64Charset)
	case AlgorithmUUID:
		return g.GenerateUUID()
	case AlgorithmSecureRandom:
		return g.GenerateSecureRandom(cfg.Length)
	case AlgorithmAPIKey:
		return g.GenerateAPIKey(cfg.Segments, cfg.SegmentLength)
	case AlgorithmNumericPIN:
		return g.GenerateStringWithCharset(cfg.Length, Digits)
	case AlgorithmPassword:
		return g.GeneratePassword(cfg.Length, cfg.Password)
	case AlgorithmBinaryKey:
		return g.GenerateBinaryKey(cfg.Bytes)
	default:
		return "", fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, cfg.Algorithm)
	}
}

// GenerateStringWithCharset generates a random string of length characters drawn
// uniformly from charset. The charset may contain any runes; duplicates weigh more.
func (g *SecretGenerator) GenerateStringWithCharset(length int, charset string) (string, error) {
	if err := checkSize("length", length, MaxLength); err != nil {
		return "", err
	}
	if charset == "" {
		return "", fmt.Errorf("%w: charset must not be empty", ErrEmptyCharset)
	}

	alphabet := []rune(charset)
	result := make([]rune, length)
	for i := range result {
		r, err := g.randomRune(alphabet)
		if err != nil {
			return "", err
		}
		result[i] = r
	}

	return string(result), nil
}

// GenerateWithCustomCharset draws length characters from a user supplied charset,
// optionally removing similar characters first.
func (g *SecretGenerator) GenerateWithCustomCharset(length int, charset string, excludeSimilar bool) (string, error) {
	if charset == "" {
		return "", fmt.Errorf("%w: custom charset must not be empty", ErrEmptyCharset)
	}

	effective := charset
	if excludeSimilar {
		effective = ExcludeSimilarCharacters(charset)
	}
	if effective == "" {
		return "", fmt.Errorf("%w: no characters left after excluding similar characters from %q", ErrEmptyCharset, charset)
	}

	return g.GenerateStringWithCharset(length, effective)
}

// GenerateBytes generates random bytes of the specified length
func (g *SecretGenerator) GenerateBytes(length int) ([]byte, error) {
	if err := checkSize("length", length, MaxBytes); err != nil {
		return nil, err
	}

	randomBytes := make([]byte, length)
	if _, err := io.ReadFull(g.rand, randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return randomBytes, nil
}

// GenerateUUID generates a random version 4 UUID in its canonical lowercase form.
// The variant bits are fixed to 10, so the first digit of the fourth group is one of 8, 9, a, b.
func (g *SecretGenerator) GenerateUUID() (string, error) {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	return id.String(), nil
}

// GenerateSecureRandom encodes length random bytes as unpadded URL-safe base64 and
// keeps the first length characters of the encoding. The result therefore carries
// about 6 bits of entropy per character, not 8.
func (g *SecretGenerator) GenerateSecureRandom(length int) (string, error) {
	randomBytes, err := g.GenerateBytes(length)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(randomBytes)
	return encoded[:length], nil
}

// GenerateAPIKey generates segments groups of segmentLength alphanumeric characters joined by hyphens
func (g *SecretGenerator) GenerateAPIKey(segments, segmentLength int) (string, error) {
	if err := checkAPIKeySize(segments, segmentLength); err != nil {
		return "", err
	}

	parts := make([]string, segments)
	for i := range parts {
		part, err := g.GenerateStringWithCharset(segmentLength, AlphanumericCharset)
		if err != nil {
			return "", err
		}
		parts[i] = part
	}

	return strings.Join(parts, "-"), nil
}

// GeneratePassword generates a password containing at least one character of every
// enabled class. The mandatory characters are placed first, the rest is filled from the
// union of the enabled classes, and the whole sequence is shuffled.
//
// When length is smaller than the number of enabled classes, every class still contributes
// its mandatory character and the password is longer than requested. Without any enabled
// class the alphanumeric alphabet is used.
func (g *SecretGenerator) GeneratePassword(length int, opts PasswordOptions) (string, error) {
	if err := checkSize("length", length, MaxLength); err != nil {
		return "", err
	}

	classes := opts.classes()
	if len(classes) == 0 {
		classes = []string{AlphanumericCharset}
	}
	pool := []rune(strings.Join(classes, ""))

	password := make([]rune, 0, max(length, len(classes)))
	for _, class := range classes {
		r, err := g.randomRune([]rune(class))
		if err != nil {
			return "", err
		}
		password = append(password, r)
	}

	for len(password) < length {
		r, err := g.randomRune(pool)
		if err != nil {
			return "", err
		}
		password = append(password, r)
	}

	if err := g.shuffle(password); err != nil {
		return "", err
	}

	return string(password), nil
}

// GenerateBinaryKey generates bytes random bytes rendered as lowercase hex
func (g *SecretGenerator) GenerateBinaryKey(bytes int) (string, error) {
	randomBytes, err := g.GenerateBytes(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}

// randomRune picks a uniformly random rune from alphabet
func (g *SecretGenerator) randomRune(alphabet []rune) (rune, error) {
	if len(alphabet) == 0 {
		return 0, ErrEmptyCharset
	}
	i, err := g.randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

// shuffle performs a Fisher-Yates shuffle using the random source
func (g *SecretGenerator) shuffle(data []rune) error {
	for i := len(data) - 1; i > 0; i-- {
		j, err := g.randomIndex(i + 1)
		if err != nil {
			return err
		}
		data[i], data[j] = data[j], data[i]
	}
	return nil
}

// randomIndex returns a uniform random int in [0, n).
// Samples at or above the largest multiple of n that fits in 32 bits are rejected,
// so the reduction modulo n is unbiased.
func (g *SecretGenerator) randomIndex(n int) (int, error) {
	if n <= 0 || uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: random bound out of range: %d", ErrInvalidConfig, n)
	}

	bound := uint32(n)
	limit := math.MaxUint32 - math.MaxUint32%bound

	var buf [4]byte
	for {
		if _, err := io.ReadFull(g.rand, buf[:]); err != nil {
			return 0, fmt.Errorf("failed to read random source: %w", err)
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < limit {
			return int(v % bound), nil
		}
	}
}
