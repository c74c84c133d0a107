package wishlist

import (
	"sort"
	"time"
)

// OpKind is the direction of a pending wishlist mutation.
type OpKind int

const (
	OpAdd OpKind = iota + 1
	OpRemove
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// PendingOperation is an in-flight add or remove for one dress.
type PendingOperation struct {
	DressID     int64
	Kind        OpKind
	SubmittedAt time.Time

	seq uint64
}

// Ledger tracks at most one pending operation per dress. Beginning a new
// operation for a dress replaces the previous one. A Ledger is not safe for
// concurrent use; the ViewModel guards it.
type Ledger struct {
	entries map[int64]PendingOperation
	seq     uint64
	now     func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[int64]PendingOperation), now: time.Now}
}

// Begin records op kind for dressID, superseding any pending operation.
func (l *Ledger) Begin(dressID int64, kind OpKind) PendingOperation {
	l.seq++
	op := PendingOperation{DressID: dressID, Kind: kind, SubmittedAt: l.now(), seq: l.seq}
	l.entries[dressID] = op
	return op
}

// Complete drops the entry for dressID whatever its kind.
func (l *Ledger) Complete(dressID int64) {
	delete(l.entries, dressID)
}

// IsPending returns the kind of the pending operation for dressID.
func (l *Ledger) IsPending(dressID int64) (OpKind, bool) {
	op, ok := l.entries[dressID]
	return op.Kind, ok
}

// IsCurrent reports whether op is still the active operation for its dress,
// i.e. it was neither completed nor superseded.
func (l *Ledger) IsCurrent(op PendingOperation) bool {
	cur, ok := l.entries[op.DressID]
	return ok && cur.seq == op.seq
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Operations returns the pending operations, most recent first.
func (l *Ledger) Operations() []PendingOperation {
	ops := make([]PendingOperation, 0, len(l.entries))
	for _, op := range l.entries {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].seq > ops[j].seq })
	return ops
}
