// Package sqlite provides the persistent IndexStore backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. A single manifest row records the index identity,
// entry count and chained checksum; entries are stored in insertion order with
// vectors as little-endian float32 blobs and metadata as JSON.
//
// # Data Location
//
// Each index is a directory holding index.db. The directory is named by the
// index.path setting.
//
// # Integrity
//
// Every write runs in one transaction. Load re-derives the checksum from the
// stored rows and rejects any mismatch as a corrupt index. Only plain data is
// read back; nothing stored in the file is executed.
package sqlite
