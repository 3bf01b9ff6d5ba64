package core

import (
	"errors"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrInvalidLength indicates an encoded length is negative or exceeds the remaining bytes.
var ErrInvalidLength = errors.New("invalid encoded length")

const float32Size = 4

// Serializers for the types musgen cannot express: decoded lengths are
// bounded by the bytes that remain, so a corrupt header fails instead of
// allocating. IDMUS and RecordMUS are generated, see records_mus.gen.go.
var (
	VectorMUS   = vectorMUS{}
	SnapshotMUS = snapshotMUS{}
)

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > (len(bs)-n)/float32Size {
		return nil, n, fmt.Errorf("%w: vector of %d elements", ErrInvalidLength, length)
	}
	v = make([]float32, length)
	for i := range v {
		f, m, err := raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) (size int) {
	return varint.Int.Size(len(v)) + len(v)*raw.Float32.Size(0)
}

type snapshotMUS struct{}

func (snapshotMUS) Marshal(v Snapshot, bs []byte) (n int) {
	n = ord.String.Marshal(v.Model, bs)
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	n += varint.Int.Marshal(len(v.Records), bs[n:])
	for _, r := range v.Records {
		n += RecordMUS.Marshal(r, bs[n:])
	}
	n += varint.Int.Marshal(len(v.Vectors), bs[n:])
	for _, vec := range v.Vectors {
		n += VectorMUS.Marshal(vec, bs[n:])
	}
	return n
}

func (snapshotMUS) Unmarshal(bs []byte) (v Snapshot, n int, err error) {
	var m, length int
	v.Model, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Dimension, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}

	length, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	// Every record and vector occupies at least one byte.
	if length < 0 || length > len(bs)-n {
		err = fmt.Errorf("%w: %d records", ErrInvalidLength, length)
		return
	}
	v.Records = make([]Record, length)
	for i := range v.Records {
		v.Records[i], m, err = RecordMUS.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
	}

	length, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	if length < 0 || length > len(bs)-n {
		err = fmt.Errorf("%w: %d vectors", ErrInvalidLength, length)
		return
	}
	v.Vectors = make([][]float32, length)
	for i := range v.Vectors {
		v.Vectors[i], m, err = VectorMUS.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
	}
	return
}

func (snapshotMUS) Size(v Snapshot) (size int) {
	size = ord.String.Size(v.Model)
	size += varint.Int.Size(v.Dimension)
	size += varint.Int.Size(len(v.Records))
	for _, r := range v.Records {
		size += RecordMUS.Size(r)
	}
	size += varint.Int.Size(len(v.Vectors))
	for _, vec := range v.Vectors {
		size += VectorMUS.Size(vec)
	}
	return size
}
