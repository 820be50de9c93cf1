// Package store provides the encrypted key-value store behind the to-do
// collection.
//
// The store is layered:
//   - Engine: a string key-value surface (GetString, Set, Delete, GetAllKeys)
//     implemented by SQLiteEngine (durable) and MemoryEngine (tests)
//   - Sealed engine: encrypts every value with the database secret before it
//     reaches the raw engine and decrypts on read
//   - Store: lazily opens the sealed engine exactly once and exposes typed
//     Get, ScanByPrefix, Set and Delete
//
// # Critical Patterns
//
// Single-flight open: the engine is opened at most once per Store. Concurrent
// first callers block on the same open and share its result. A failed open is
// not memoized, so a later call can try again.
//
// Corrupt-entry isolation: a value that fails to decrypt or decode is skipped
// (and logged) by Get and ScanByPrefix. One bad entry never blocks the rest.
//
// No authoritative cache: every read is a live query against the engine.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=FULL: a Set is durable before it returns
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// Keys are stored in plaintext so prefix scans work; values are ciphertext.
package store
