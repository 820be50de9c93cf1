// Package harness runs YAML scenarios against the to-do controller and
// compares the resulting action log with golden files.
//
// A scenario is a list of operations (save, toggle, edit, move, delete and
// the two loads) applied to a controller over a fresh encrypted store. The
// store is the real sealed store on a memory engine, so every scenario
// exercises key derivation, encryption and prefix scans end to end.
//
// # Scenario Format
//
//	name: delete_last_record
//	description: Deleting the only record of a date drops the date
//	flow:
//	  - op: save
//	    record: {date: "2024-01-01", text: "buy milk"}
//	    expect: {id: id-0001}
//	  - op: delete
//	    id: id-0001
//	assertions:
//	  - type: known_dates
//	    dates: []
//
// Ids are assigned from a sequence ("id-0001", "id-0002", ...) so later
// steps can address records by id and golden files stay stable.
//
// # Failure Injection
//
// The fail op makes every subsequent put, delete or scan of the record store
// return an error until a heal op. This is how scenarios check that a failed
// write leaves the projection untouched.
//
// # Golden Files
//
// RunWithGolden renders the action log, final projection and persisted keys
// as text and compares them with testdata/golden/<name>.golden. To
// regenerate after an intended change:
//
//	go test ./internal/harness -update
package harness
