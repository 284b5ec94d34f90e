package plant

import "errors"

// Domain errors for the heatup engine. All of these are fatal: they mean a
// conservation or consistency invariant broke and the run must not continue.
var (
	// ErrNonFiniteState indicates a NaN or Inf in a mass or ledger field.
	ErrNonFiniteState = errors.New("plant: non-finite state (NaN or Inf detected)")

	// ErrLedgerMismatch indicates the component-mass delta diverged from the
	// boundary ledger delta beyond tolerance.
	ErrLedgerMismatch = errors.New("plant: component mass delta does not match ledger delta")

	// ErrEventReapplied indicates a boundary-flow event was applied twice in
	// one tick.
	ErrEventReapplied = errors.New("plant: boundary flow event already consumed this tick")

	// ErrBlockedOverride indicates a non-derived pressure write during an
	// active conservation audit.
	ErrBlockedOverride = errors.New("plant: forced pressure override blocked by conservation audit")

	// ErrFaulted indicates a previous tick aborted; the run must be rebuilt.
	ErrFaulted = errors.New("plant: simulation faulted by a previous tick")
)

// TickError wraps a fatal error with the tick context it fired in.
type TickError struct {
	Tick    int64
	SimTime float64
	Wrapped error
}

func (e *TickError) Error() string {
	return e.Wrapped.Error()
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
