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

import "strings"

// Built-in character sets
const (
	// Lowercase contains the 26 lowercase ASCII letters
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	// Uppercase contains the 26 uppercase ASCII letters
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// Digits contains the 10 decimal digits
	Digits = "0123456789"
	// Symbols contains the 32 printable ASCII punctuation characters
	Symbols = "!@#$%^&*()_+-=[]{}|;:,.<>?\"'/\\`~"

	// AlphanumericCharset contains only alphanumeric characters
	AlphanumericCharset = Lowercase + Uppercase + Digits
	// AlphanumericWithSymbolsCharset extends the alphanumeric set with Symbols
	AlphanumericWithSymbolsCharset = AlphanumericCharset + Symbols
	// HexadecimalCharset contains the lowercase hex digits
	HexadecimalCharset = "0123456789abcdef"
	// Base64Charset is the standard base64 alphabet, used as a plain sampling alphabet
	Base64Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
)

// similarGroups lists characters that are easily confused with each other in common fonts
var similarGroups = [][]rune{
	{'0', 'O', 'o', 'Q', 'D'},
	{'1', 'l', 'I', 'i', '|'},
	{'5', 'S', 's'},
	{'2', 'Z', 'z'},
}

// similarIndex maps every member of a similar group to its group
var similarIndex = func() map[rune][]rune {
	index := make(map[rune][]rune)
	for _, group := range similarGroups {
		for _, r := range group {
			index[r] = group
		}
	}
	return index
}()

// SimilarCharacters returns the characters that are visually confusable with r.
// The result does not include r itself and is nil if r belongs to no group.
func SimilarCharacters(r rune) []rune {
	group, ok := similarIndex[r]
	if !ok {
		return nil
	}
	similar := make([]rune, 0, len(group)-1)
	for _, c := range group {
		if c != r {
			similar = append(similar, c)
		}
	}
	return similar
}

// IsSimilarCharacter reports whether r belongs to any similar-character group
func IsSimilarCharacter(r rune) bool {
	_, ok := similarIndex[r]
	return ok
}

// ExcludeSimilarCharacters removes every character that belongs to a similar-character
// group from charset, keeping the order of the remaining characters.
func ExcludeSimilarCharacters(charset string) string {
	var b strings.Builder
	b.Grow(len(charset))
	for _, r := range charset {
		if !IsSimilarCharacter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
