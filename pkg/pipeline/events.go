package pipeline

import "time"

// Kind is one of the change event kinds from spec §3.
type Kind string

const (
	Created  Kind = "Created"
	Modified Kind = "Modified"
	Deleted  Kind = "Deleted"
	Renamed  Kind = "Renamed"
)

// ChangeEvent is one filesystem change observed for a workspace (spec §3).
// Renames are decomposed upstream into a Deleted(old) + Created(new) pair,
// so Kind is never actually Renamed on a queued event; the constant exists
// for completeness with the spec's enumeration and for callers that want to
// label the synthesized pair.
type ChangeEvent struct {
	Path      string
	Workspace string
	Kind      Kind
	Timestamp time.Time
}

// PendingDelete tracks a delete awaiting verification after the quiet
// period (spec §3).
type PendingDelete struct {
	Path           string
	FirstSeenTime  time.Time
	LastActivityTime time.Time
	Cancelled      bool
}
