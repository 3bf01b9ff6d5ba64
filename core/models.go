package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// ID is a stable identifier for a corpus record.
// It is derived from record content so the same corpus always yields the same IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// RecordID derives the ID of a corpus row from its URL and original text.
// occurrence counts earlier rows with the same URL and text, so exact
// duplicates still receive distinct IDs.
func RecordID(url, originalText string, occurrence int) ID {
	return IDFromContent(url + "\x00" + originalText + "\x00" + strconv.Itoa(occurrence))
}

// Record is one normalized corpus entry. Records are immutable once prepared.
type Record struct {
	Id                ID
	OriginalText      string
	CleanedText       string
	DiacriticlessText string // The text sent to the embedding provider
	Source            string
	URL               string
	Year              *string // Parsed from URL, nil when the URL carries no date
	Month             *string
	Day               *string
}

// Snapshot is the persisted pairing of embeddings and the records they were
// computed from. Vectors[i] is the embedding of Records[i].DiacriticlessText.
type Snapshot struct {
	Model     string // Embedding model that produced the vectors
	Dimension int
	Records   []Record
	Vectors   [][]float32
}

// Len returns the number of embedded records.
func (s *Snapshot) Len() int {
	return len(s.Records)
}

// IDs returns the record IDs in snapshot order.
func (s *Snapshot) IDs() []ID {
	ids := make([]ID, len(s.Records))
	for i := range s.Records {
		ids[i] = s.Records[i].Id
	}
	return ids
}

// SearchResult represents a search result with the full record and its distance to the query.
type SearchResult struct {
	Record   *Record
	Position int     // Position of the record in the snapshot
	Score    float32 // Squared Euclidean distance, lower is more similar
}

// StringPtr returns a pointer to s, or nil if s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
