package core

import (
	"errors"
	"fmt"
	"math"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindMissingLocation
	KindOutOfRange
	KindRouteMismatch
	KindOutOfOrder
	KindDuplicateMark
	KindStoreFailure
	KindNotAssigned
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindMissingLocation:
		return "MISSING_LOCATION"
	case KindOutOfRange:
		return "OUT_OF_RANGE"
	case KindRouteMismatch:
		return "ROUTE_MISMATCH"
	case KindOutOfOrder:
		return "OUT_OF_ORDER"
	case KindDuplicateMark:
		return "DUPLICATE_MARK"
	case KindStoreFailure:
		return "STORE_FAILURE"
	case KindNotAssigned:
		return "NOT_ASSIGNED"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

const (
	EntityRound      = "round"
	EntityCheckpoint = "checkpoint"
)

// ErrAlreadyMarked is returned by mark stores when the (round, checkpoint)
// unique constraint rejects an insert.
var ErrAlreadyMarked = errors.New("checkpoint already marked in round")

// MarkError is the rejection reported for a scan. Entity is set for
// KindNotFound, Distance for KindOutOfRange and Err for KindStoreFailure.
type MarkError struct {
	Kind     Kind
	Entity   string
	Distance float64
	Err      error
}

func (e *MarkError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found", e.Entity)
	case KindMissingLocation:
		return "GPS location is required to validate this checkpoint"
	case KindOutOfRange:
		return fmt.Sprintf("outside the allowed range (%dm), move closer to the checkpoint", e.RoundedDistance())
	case KindRouteMismatch:
		return "checkpoint does not belong to this round"
	case KindOutOfOrder:
		return "wrong order: the previous checkpoint must be marked first"
	case KindDuplicateMark:
		return "checkpoint already marked in this round"
	case KindStoreFailure:
		return fmt.Sprintf("store failure: %v", e.Err)
	case KindNotAssigned:
		return "round is assigned to another guard"
	}
	return e.Kind.String()
}

func (e *MarkError) Unwrap() error {
	return e.Err
}

func (e *MarkError) RoundedDistance() int {
	return int(math.Round(e.Distance))
}

// Is matches another *MarkError of the same kind so callers can write
// errors.Is(err, core.ErrOutOfOrder).
func (e *MarkError) Is(target error) bool {
	t, ok := target.(*MarkError)
	if !ok {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrRoundNotFound      = &MarkError{Kind: KindNotFound, Entity: EntityRound}
	ErrCheckpointNotFound = &MarkError{Kind: KindNotFound, Entity: EntityCheckpoint}
	ErrMissingLocation    = &MarkError{Kind: KindMissingLocation}
	ErrOutOfRange         = &MarkError{Kind: KindOutOfRange}
	ErrRouteMismatch      = &MarkError{Kind: KindRouteMismatch}
	ErrOutOfOrder         = &MarkError{Kind: KindOutOfOrder}
	ErrDuplicateMark      = &MarkError{Kind: KindDuplicateMark}
	ErrStoreFailure       = &MarkError{Kind: KindStoreFailure}
	ErrNotAssigned        = &MarkError{Kind: KindNotAssigned}
)

func storeFailure(op string, err error) *MarkError {
	return &MarkError{Kind: KindStoreFailure, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf extracts the rejection kind of err, or 0 when err is not a MarkError.
func KindOf(err error) Kind {
	var me *MarkError
	if errors.As(err, &me) {
		return me.Kind
	}
	return 0
}
