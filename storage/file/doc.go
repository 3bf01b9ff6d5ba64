// Package file stores semsearch artifacts as single files on local disk.
//
// Every save goes through storage.WriteFileAtomic, so a snapshot or index
// is replaced in one rename and concurrent readers never see a half-written
// file. A missing file loads as storage.ErrNotFound.
package file
