// Package testutil provides deterministic fakes for controller and harness
// tests: sequential record ids and an in-memory record store with failure
// injection.
package testutil
