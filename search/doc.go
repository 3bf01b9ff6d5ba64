// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package search answers free-text queries against a loaded embedding
// snapshot and its vector index.
//
// A query is embedded with the same model that produced the snapshot, the
// index returns the nearest positions by squared Euclidean distance, and each
// position is joined back to the record stored at that position. Scores are
// distances, so lower means more similar.
package search
