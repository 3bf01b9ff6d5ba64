// Package embed turns an ordered set of prepared records into an embedding
// snapshot.
//
// Records are sent to the provider in contiguous batches. Transient provider
// failures are retried with exponential backoff, fatal ones abort the run,
// and every batch is checked for vector count and dimension before it is
// accepted. A snapshot is persisted only when every record has a vector.
// An optional vector cache lets a re-run skip batches that an earlier,
// aborted run already embedded.
package embed
