package ledger

import "fmt"

// PersistenceError reports that the ledger document could not be written to
// its slot. The in-memory ledger is unaffected.
type PersistenceError struct {
	Key string
	Op  string // "encode" or "write"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: persist %s (%s): %v", e.Key, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadReason classifies why Load fell back to an empty ledger.
type LoadReason string

const (
	ReasonMissing    LoadReason = "missing"
	ReasonUnreadable LoadReason = "unreadable"
	ReasonCorrupt    LoadReason = "corrupt"
)

// LoadWarning is the non-fatal outcome of a Load that could not restore a
// persisted document. The ledger is left empty and fully usable.
type LoadWarning struct {
	Key    string
	Reason LoadReason
	Err    error
}

func (w *LoadWarning) Error() string {
	return fmt.Sprintf("ledger: load %s: %s: %v", w.Key, w.Reason, w.Err)
}

func (w *LoadWarning) Unwrap() error { return w.Err }
