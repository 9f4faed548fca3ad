// Package fixtures serves assistants and run steps from an in-memory store
// loaded from a directory of JSON or YAML files.
//
// The directory may contain:
//
//	assistants.json | assistants.yaml   a JSON array of assistant objects
//	run_steps.json  | run_steps.yaml    a JSON array of run step objects
//
// Every object is decoded through the assistants codec, so a fixture that
// the codec rejects fails Load with the same error a client would see.
//
// Listings follow the service's cursor rules: items are ordered by
// created_at (newest first unless order=asc, ties broken by id), "after" and
// "before" are exclusive cursors, and limit defaults to 20.
package fixtures
