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

import "errors"

var (
	// ErrEmptyCharset indicates that the effective character set has no characters,
	// either because none was supplied or because filtering removed all of them.
	ErrEmptyCharset = errors.New("character set is empty")

	// ErrInvalidConfig indicates a structurally invalid generator configuration,
	// such as a negative length or an unknown algorithm.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
