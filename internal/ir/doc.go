// Package ir defines the intermediate representation the executor runs: an
// append-only arena of kind-tagged operation nodes addressed by dense integer
// NodeIDs, plus the experiments that reference them.
//
// Identity is positional: a node's ID equals its index in the arena, IDs are
// allocated in strictly increasing order, and a node may only reference nodes
// allocated before it. That makes the arena a DAG by construction and lets the
// executor cache results in a flat slice instead of a map.
//
// Everything here is plain structured data: a Program survives a JSON
// round-trip field for field, which is what the store persists and what an
// external job queue would transmit.
package ir
