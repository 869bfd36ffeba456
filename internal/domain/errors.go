package domain

import (
	"errors"
	"fmt"
)

// Outcome taxonomy returned by the lifecycle service. Guard failures detected
// through zero-modified conditional writes are mapped onto these, never leaked
// as raw store errors.
var (
	// ErrAuctionNotFound: the referenced auction does not exist.
	ErrAuctionNotFound = errors.New("auction not found")

	// ErrInvalidTransition: a state-machine guard failed, including a
	// conditional write lost to a concurrent caller.
	ErrInvalidTransition = errors.New("invalid auction state transition")

	// ErrBidRejected: bid amount too low, auction not open, or the bid lost
	// a race. The store filter does not distinguish these.
	ErrBidRejected = errors.New("bid rejected")

	// ErrAuctionNotClosed: winner queried before the auction closed.
	ErrAuctionNotClosed = errors.New("auction is not closed")

	// ErrDuplicateListing: an auction already exists for the listing.
	ErrDuplicateListing = errors.New("auction already exists for listing")

	// ErrSourceUnavailable: the listing source could not be reached. Ingest
	// degrades to an empty result instead of propagating this.
	ErrSourceUnavailable = errors.New("listing source unavailable")
)

// StoreError wraps a persistence-layer failure with the operation that hit it.
// Unlike guard failures these always propagate.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("auction store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
