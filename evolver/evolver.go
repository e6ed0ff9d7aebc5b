// Package evolver holds the wire types exchanged with an optional,
// out-of-scope evolutionary controller that could, in principle, propose
// rewrites of this dispatcher's own source.
//
// The controller itself is out of scope here; only the data types it would
// exchange with this dispatcher are retained. Nothing in this repo
// constructs, mutates, or interprets these types; no other package imports
// this one. It exists so a future external controller has a stable Go
// shape to marshal against.
package evolver

import "time"

// Candidate is a single proposed source rewrite, as an external controller
// would submit it. SourcePatch is opaque to this repo (typically a unified
// diff or an AST edit script produced by the controller).
type Candidate struct {
	ID          string
	ParentID    string
	SourcePatch []byte
	GeneratedAt time.Time
}

// ArchiveEntry records the outcome of evaluating a Candidate: its measured
// fitness and whether the controller accepted it into its lineage.
type ArchiveEntry struct {
	Candidate    Candidate
	FitnessScore float64
	Accepted     bool
}
