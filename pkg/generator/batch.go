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
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds the number of concurrent generations in GenerateBatch
const DefaultBatchConcurrency = 8

// GenerateBatch generates count independent secrets with the same config.
// Generations run concurrently, at most concurrency at a time (DefaultBatchConcurrency
// if concurrency <= 0). Results are returned in index order. If any generation fails,
// or ctx is cancelled, no secrets are returned.
func (g *SecretGenerator) GenerateBatch(ctx context.Context, cfg Config, count, concurrency int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: batch count must not be negative, got %d", ErrInvalidConfig, count)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]string, count)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i := 0; i < count; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := g.Generate(cfg)
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			results[i] = value
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
