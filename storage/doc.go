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


// Package storage provides the artifact persistence layer for semsearch.
//
// This package defines store interfaces that decouple the pipeline from the
// concrete storage of its artifacts: the embedding snapshot, the vector
// index, and the optional embedding cache. It also owns their binary
// framing and the sentinel errors callers match with errors.Is.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to keep callers independent of the
// backend:
//
//	snapshots := file.NewSnapshotStore(path)  // returns storage.SnapshotStore
//	cache, err := badger.NewVectorCache(dir)  // returns storage.VectorCache
//
// # Implementations
//
//   - storage/file: single-file snapshot and index artifacts, replaced atomically
//   - storage/badger: BadgerDB embedding cache keyed by model and text
//
// # Atomicity
//
// Artifacts are never written in place. WriteFileAtomic writes a temp file in
// the destination directory, syncs it and renames it over the target, so
// concurrent readers see either the old artifact or the new one.
//
// # Thread Safety
//
// All store implementations must be safe for concurrent use.
package storage
