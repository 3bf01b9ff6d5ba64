// Package index provides an exact nearest-neighbor index over embedding
// vectors using squared Euclidean distance.
//
// Flat scans every vector on each query. Results are deterministic: ordered
// by ascending distance, ties broken by build position. The index carries
// the record ID of every vector so callers can cross-check positions against
// the snapshot the index was built from.
//
//	idx, err := index.Build(snapshot.IDs(), snapshot.Vectors)
//	neighbors, err := idx.Search(queryVector, 5)
package index
