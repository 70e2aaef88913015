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

package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guided-traffic/secret-generator/pkg/strength"
)

// DefaultMaxItems is the number of entries kept when New is given a non-positive limit
const DefaultMaxItems = 50

// Entry is a generated secret recorded in the history
type Entry struct {
	ID        string            `json:"id" yaml:"id"`
	Secret    string            `json:"secret" yaml:"secret"`
	Algorithm string            `json:"algorithm" yaml:"algorithm"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Strength  *strength.Summary `json:"strength,omitempty" yaml:"strength,omitempty"`
}

// Clock is an interface for getting the current time.
// This allows for time mocking in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Option configures a History
type Option func(*History)

// WithClock sets the clock used to timestamp entries
func WithClock(clock Clock) Option {
	return func(h *History) {
		h.clock = clock
	}
}

// History is a bounded list of generated secrets, newest first.
// It is safe for concurrent use and keeps everything in memory.
type History struct {
	mu       sync.RWMutex
	entries  []Entry
	maxItems int
	clock    Clock
}

// New creates an empty History keeping at most maxItems entries
func New(maxItems int, opts ...Option) *History {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	h := &History{
		maxItems: maxItems,
		clock:    RealClock{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add records a secret at the front of the history and drops the oldest entries
// beyond the limit. summary may be nil.
func (h *History) Add(secret, algorithm string, summary *strength.Summary) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Secret:    secret,
		Algorithm: algorithm,
		Timestamp: h.clock.Now(),
	}
	if summary != nil {
		s := *summary
		entry.Strength = &s
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries := make([]Entry, 0, min(len(h.entries)+1, h.maxItems))
	entries = append(entries, entry)
	for _, e := range h.entries {
		if len(entries) == h.maxItems {
			break
		}
		entries = append(entries, e)
	}
	h.entries = entries

	return entry
}

// Remove deletes the entry with the given id and reports whether it existed
func (h *History) Remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, e := range h.entries {
		if e.ID == id {
			h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the entry with the given id
func (h *History) Get(id string) (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Clear removes all entries
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// List returns a copy of the entries, newest first
func (h *History) List() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
