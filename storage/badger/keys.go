package badger

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/semsearch/storage"
)

// Key prefixes for different data types
const (
	vectorPrefix = "vec:"
)

// makeVectorKey generates the cache key for the embedding of text in space.
// Format: prefix + BLAKE2b-256(uvarint(len(model)) model uvarint(dims) text).
func makeVectorKey(space storage.EmbeddingSpace, text string) []byte {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(space.Model)))
	h.Write(buf[:n])
	h.Write([]byte(space.Model))
	n = binary.PutUvarint(buf[:], uint64(space.Dimensions))
	h.Write(buf[:n])
	h.Write([]byte(text))

	key := make([]byte, 0, len(vectorPrefix)+h.Size())
	key = append(key, vectorPrefix...)
	return h.Sum(key)
}
