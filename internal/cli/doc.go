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

// Package cli implements the secretgen command line interface.
//
// The command tree is built by NewRootCommand. Every command reads the
// YAML configuration named by --config, overlays its own flags on the
// configured generator defaults and writes its results to the command's
// output stream. Diagnostics go to the error stream through zap.
package cli
