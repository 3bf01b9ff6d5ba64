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


package core

import (
	"fmt"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - DiacriticlessText must not be empty
//
// NOT validated:
//   - Year/Month/Day (nil when the URL has no date)
//   - ID (checked for uniqueness at snapshot level)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.DiacriticlessText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyContent)
	}

	return nil
}

// ValidateRecords validates every record and checks that IDs are unique.
func ValidateRecords(records []Record) error {
	if len(records) == 0 {
		return ErrEmptyCorpus
	}
	seen := make(map[ID]int, len(records))
	for i := range records {
		if err := ValidateRecord(&records[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if prev, ok := seen[records[i].Id]; ok {
			return fmt.Errorf("%w: %w: positions %d and %d", ErrInvalidRecord, ErrDuplicateID, prev, i)
		}
		seen[records[i].Id] = i
	}
	return nil
}

// ValidateSnapshot checks the ordering contract of a Snapshot.
//
// Validation rules:
//   - one vector per record
//   - every vector has length Dimension
//   - record IDs are unique
func ValidateSnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrIntegrityMismatch)
	}

	if len(snapshot.Vectors) != len(snapshot.Records) {
		return fmt.Errorf("%w: %d vectors for %d records",
			ErrIntegrityMismatch, len(snapshot.Vectors), len(snapshot.Records))
	}

	if len(snapshot.Records) == 0 {
		return fmt.Errorf("%w: %w", ErrIntegrityMismatch, ErrEmptyCorpus)
	}

	if snapshot.Dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", ErrIntegrityMismatch, snapshot.Dimension)
	}

	seen := make(map[ID]int, len(snapshot.Records))
	for i, vec := range snapshot.Vectors {
		if len(vec) != snapshot.Dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				ErrIntegrityMismatch, i, len(vec), snapshot.Dimension)
		}
		id := snapshot.Records[i].Id
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %w: positions %d and %d", ErrIntegrityMismatch, ErrDuplicateID, prev, i)
		}
		seen[id] = i
	}

	return nil
}
