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

// Package strength estimates the strength of an arbitrary secret.
//
// The estimate is a heuristic: it scores length, character variety and an
// entropy approximation that assumes every character was drawn uniformly from
// the union of the character classes present. It does not measure the real
// information content of a secret and must not be treated as a guarantee.
package strength

import (
	"math"
	"strings"
)

// Level is the strength tier derived from the score
type Level string

// Strength tiers
const (
	Weak       Level = "weak"
	Medium     Level = "medium"
	Strong     Level = "strong"
	VeryStrong Level = "very-strong"
)

// symbols is the punctuation set recognized for the variety score
const symbols = "!@#$%^&*()_+-=[]{}|;:,.<>?\"'/\\`~"

// Class sizes used by the entropy approximation
const (
	lowercaseSize = 26
	uppercaseSize = 26
	digitSize     = 10
	symbolSize    = 32
)

// maxFeedback caps the number of feedback lines in a Result
const maxFeedback = 4

// commonWords are substrings of frequently used passwords, matched case-insensitively
var commonWords = []string{
	"password", "admin", "12345", "qwerty", "letmein", "welcome", "monkey", "dragon", "master",
}

// Feedback messages
const (
	FeedbackEmpty         = "Enter a password to check strength"
	FeedbackTooShort      = "Password is too short (minimum 8 characters)"
	FeedbackLonger        = "Consider using a longer password (12+ characters)"
	FeedbackAddLowercase  = "Add lowercase letters"
	FeedbackAddUppercase  = "Add uppercase letters"
	FeedbackAddNumbers    = "Add numbers"
	FeedbackAddSymbols    = "Add special characters"
	FeedbackGood          = "Good password strength!"
	FeedbackHighEntropy   = "High entropy - excellent randomness"
	FeedbackStrongVariety = "Strong password with good variety"
)

// Result is the outcome of Estimate
type Result struct {
	Strength Level `json:"strength" yaml:"strength"`
	// Score is in [0, 100]
	Score int `json:"score" yaml:"score"`
	// Feedback holds at most four lines, positive remarks first
	Feedback []string `json:"feedback" yaml:"feedback"`
	// Entropy is the approximate entropy in bits, rounded to one decimal place
	Entropy float64 `json:"entropy" yaml:"entropy"`
}

// Summary is the part of a Result kept alongside stored or exported secrets
type Summary struct {
	Score    int     `json:"score" yaml:"score"`
	Strength Level   `json:"strength" yaml:"strength"`
	Entropy  float64 `json:"entropy" yaml:"entropy"`
}

// Summary returns the score, tier and entropy of r
func (r Result) Summary() Summary {
	return Summary{Score: r.Score, Strength: r.Strength, Entropy: r.Entropy}
}

// Estimate scores secret. It is deterministic and has no side effects.
func Estimate(secret string) Result {
	runes := []rune(secret)
	length := len(runes)
	if length == 0 {
		return Result{
			Strength: Weak,
			Score:    0,
			Feedback: []string{FeedbackEmpty},
			Entropy:  0,
		}
	}

	var feedback []string
	score := 0.0

	switch {
	case length < 8:
		feedback = append(feedback, FeedbackTooShort)
	case length < 10:
		score += 15
		feedback = append(feedback, FeedbackLonger)
	case length < 12:
		score += 20
	case length < 16:
		score += 25
	default:
		score += 30
	}

	c := classify(runes)
	variety := 0
	if c.lower {
		variety += 10
	}
	if c.upper {
		variety += 10
	}
	if c.digit {
		variety += 10
	}
	if c.symbol {
		variety += 15
	}
	score += float64(variety)

	if !c.lower {
		feedback = append(feedback, FeedbackAddLowercase)
	}
	if !c.upper {
		feedback = append(feedback, FeedbackAddUppercase)
	}
	if !c.digit {
		feedback = append(feedback, FeedbackAddNumbers)
	}
	if !c.symbol {
		feedback = append(feedback, FeedbackAddSymbols)
	}

	entropy := Entropy(secret)
	switch {
	case entropy < 40:
		score += entropy / 2
	case entropy < 60:
		score += 20 + (entropy-40)/2
	default:
		score += 30
	}

	score = math.Max(0, score-float64(patternPenalty(runes)))

	if length >= 20 {
		score += 10
	}
	score = math.Min(100, math.Max(0, score))

	// Positive remarks are prepended, so the last one added ends up first.
	if score >= 60 {
		feedback = prepend(feedback, FeedbackGood)
	}
	if entropy >= 60 {
		feedback = prepend(feedback, FeedbackHighEntropy)
	}
	if length >= 16 && variety >= 35 {
		feedback = prepend(feedback, FeedbackStrongVariety)
	}
	if len(feedback) > maxFeedback {
		feedback = feedback[:maxFeedback]
	}

	return Result{
		Strength: levelFor(score),
		// Flooring keeps the integer score on the same side of every tier threshold.
		Score:    int(math.Floor(score)),
		Feedback: feedback,
		Entropy:  math.Round(entropy*10) / 10,
	}
}

// Entropy approximates the entropy of secret in bits as log2(alphabet size) * length,
// where the alphabet is the union of the classes present in secret. Any rune that is
// not an ASCII letter or digit counts towards the symbol class.
func Entropy(secret string) float64 {
	runes := []rune(secret)
	c := classifyForEntropy(runes)

	size := 0
	if c.lower {
		size += lowercaseSize
	}
	if c.upper {
		size += uppercaseSize
	}
	if c.digit {
		size += digitSize
	}
	if c.symbol {
		size += symbolSize
	}
	if size == 0 {
		return 0
	}

	return math.Log2(float64(size)) * float64(len(runes))
}

// levelFor maps a score to its tier
func levelFor(score float64) Level {
	switch {
	case score < 30:
		return Weak
	case score < 60:
		return Medium
	case score < 80:
		return Strong
	default:
		return VeryStrong
	}
}

type classes struct {
	lower, upper, digit, symbol bool
}

// classify detects the classes used by the variety score; symbol means a rune of the symbol set
func classify(runes []rune) classes {
	var c classes
	for _, r := range runes {
		switch {
		case isLower(r):
			c.lower = true
		case isUpper(r):
			c.upper = true
		case isDigit(r):
			c.digit = true
		case strings.ContainsRune(symbols, r):
			c.symbol = true
		}
	}
	return c
}

// classifyForEntropy is classify, except that every other rune counts as a symbol
func classifyForEntropy(runes []rune) classes {
	var c classes
	for _, r := range runes {
		switch {
		case isLower(r):
			c.lower = true
		case isUpper(r):
			c.upper = true
		case isDigit(r):
			c.digit = true
		default:
			c.symbol = true
		}
	}
	return c
}

// patternPenalty sums the penalties for repeated runs, ascending sequences and common words
func patternPenalty(runes []rune) int {
	penalty := 0
	if hasRepeatedRun(runes) {
		penalty += 10
	}
	if hasAscendingSequence(runes) {
		penalty += 15
	}
	if containsCommonWord(string(runes)) {
		penalty += 20
	}
	return penalty
}

// hasRepeatedRun reports a run of three or more identical characters. Line terminators do not count.
func hasRepeatedRun(runes []rune) bool {
	for i := 2; i < len(runes); i++ {
		if !isLineTerminator(runes[i]) && runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return true
		}
	}
	return false
}

// hasAscendingSequence reports three consecutive ascending letters (case-insensitive) or digits
func hasAscendingSequence(runes []rune) bool {
	for i := 2; i < len(runes); i++ {
		a, b, c := foldASCII(runes[i-2]), foldASCII(runes[i-1]), foldASCII(runes[i])
		if b != a+1 || c != b+1 {
			continue
		}
		if (isLower(a) && isLower(c)) || (isDigit(a) && isDigit(c)) {
			return true
		}
	}
	return false
}

func containsCommonWord(secret string) bool {
	lowered := strings.ToLower(secret)
	for _, word := range commonWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

func prepend(lines []string, line string) []string {
	return append([]string{line}, lines...)
}

func foldASCII(r rune) rune {
	if isUpper(r) {
		return r + ('a' - 'A')
	}
	return r
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
