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


package storage

import (
	"bytes"
	"fmt"

	"github.com/poiesic/semsearch/core"
)

// Artifact framing: a four byte magic followed by a format version byte.
const (
	SnapshotMagic   = "SSNP"
	SnapshotVersion = 1
	headerSize      = len(SnapshotMagic) + 1
)

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(vector []float32) []byte {
	buf := make([]byte, core.VectorMUS.Size(vector))
	core.VectorMUS.Marshal(vector, buf)
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	vector, n, err := core.VectorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return vector, nil
}

// WriteHeader writes an artifact header into buf and returns its length.
func WriteHeader(buf []byte, magic string, version byte) int {
	n := copy(buf, magic)
	buf[n] = version
	return n + 1
}

// CheckHeader validates an artifact header and returns the payload after it.
func CheckHeader(data []byte, magic string, version byte) ([]byte, error) {
	if len(data) < len(magic)+1 {
		return nil, fmt.Errorf("%w: %d bytes is too short for a header", ErrCorruptArtifact, len(data))
	}
	if !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return nil, fmt.Errorf("%w: bad magic %q, expected %q", ErrCorruptArtifact, data[:len(magic)], magic)
	}
	if v := data[len(magic)]; v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptArtifact, v)
	}
	return data[len(magic)+1:], nil
}

// MarshalSnapshot serializes a Snapshot with its artifact header.
func MarshalSnapshot(snapshot *core.Snapshot) []byte {
	buf := make([]byte, headerSize+core.SnapshotMUS.Size(*snapshot))
	n := WriteHeader(buf, SnapshotMagic, SnapshotVersion)
	core.SnapshotMUS.Marshal(*snapshot, buf[n:])
	return buf
}

// UnmarshalSnapshot deserializes a Snapshot written by MarshalSnapshot.
// Any framing or decoding failure is reported as ErrCorruptArtifact.
func UnmarshalSnapshot(data []byte) (*core.Snapshot, error) {
	payload, err := CheckHeader(data, SnapshotMagic, SnapshotVersion)
	if err != nil {
		return nil, err
	}
	snapshot, n, err := core.SnapshotMUS.Unmarshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}
	if n != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptArtifact, len(payload)-n)
	}
	return &snapshot, nil
}
