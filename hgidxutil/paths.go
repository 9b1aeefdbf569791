// Package hgidxutil implements the on-disk naming scheme and master
// index (de)serialization for an hgidx store: everything about the
// store's byte layout that doesn't need to know about Codec or
// BinGeometry as live Go values, only as the flat fields spec.md §6
// specifies. Modeled on encoding/pam/pamutil, which plays the same role
// (path helpers + index marshal/unmarshal) for the PAM format.
package hgidxutil

import "path/filepath"

// BinFileSuffix is the fixed suffix every per-sequence bin file carries.
const BinFileSuffix = ".bin"

// IndexFileName is the master index's fixed basename within a store
// directory.
const IndexFileName = "index.bin"

// BinFilePath returns the path of the bin file holding sequence's
// records within the store directory dir (spec.md §6, "<seq>.bin").
func BinFilePath(dir, sequence string) string {
	return filepath.Join(dir, sequence+BinFileSuffix)
}

// IndexPath returns the path of the master index file within dir
// (spec.md §6, "index.bin").
func IndexPath(dir string) string {
	return filepath.Join(dir, IndexFileName)
}
