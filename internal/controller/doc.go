// Package controller owns the to-do projection and keeps it in step with
// the encrypted store.
//
// Every mutation follows the same order: assign an id if the record has
// none, derive its storage key, write (or delete) durably, and only then
// dispatch the matching action to the projection. A failed write returns
// an error and leaves the projection exactly as it was.
//
// Thread-safety model:
//   - All Controller methods are safe for concurrent use
//   - Operations are serialized by one mutex, so the controller is the
//     single logical writer of its store
//   - Two controllers over the same store are last-write-wins
package controller
