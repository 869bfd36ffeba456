package domain

import (
	"context"
	"time"
)

// AuctionStore is the document-store contract. It enforces no business rules:
// every conditional method encodes its precondition in the store filter and
// reports the modified count, which the lifecycle service interprets. All
// operations are single-document atomic; there are no cross-document
// transactions.
type AuctionStore interface {
	// Get returns (nil, nil) when no auction has the given id.
	Get(ctx context.Context, auctionID string) (*Auction, error)

	// Insert persists a new auction. A uniqueness violation on listing_id is
	// reported as ErrDuplicateListing.
	Insert(ctx context.Context, auction *Auction) error

	// ExistsForListing reports whether any auction references the listing.
	ExistsForListing(ctx context.Context, listingID string) (bool, error)

	// ApplyBid matches {id, status=Open, current_bid < entry.Amount} and sets
	// the current bid/bidder while appending entry to the history.
	ApplyBid(ctx context.Context, auctionID string, entry Bid) (int64, error)

	// OpenPending matches {id, status=Pending} and sets status=Open.
	OpenPending(ctx context.Context, auctionID string) (int64, error)

	// CloseOpen matches {id, status=Open} and sets status=Closed together
	// with the winner fields.
	CloseOpen(ctx context.Context, auctionID, winnerID string, winningBid float64) (int64, error)

	// SetPickedUp unconditionally sets picked_up=true, returning the
	// post-update document, or (nil, nil) when the auction does not exist.
	SetPickedUp(ctx context.Context, auctionID string) (*Auction, error)

	// FindByStatus returns auctions with the given status, or all auctions
	// when status is nil.
	FindByStatus(ctx context.Context, status *AuctionStatus) ([]*Auction, error)

	// FindByWinner returns closed auctions won by the given bidder.
	FindByWinner(ctx context.Context, winnerID string) ([]*Auction, error)

	// FindExpiredOpen returns open auctions whose ends_at lies at or before
	// the given instant. Auctions without ends_at are never returned.
	FindExpiredOpen(ctx context.Context, now time.Time) ([]*Auction, error)
}

// ListingSource supplies the external catalog of sellable items.
type ListingSource interface {
	FetchAllListings(ctx context.Context) ([]Listing, error)
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// AuctionBroadcaster fans an event out to everyone watching one auction.
type AuctionBroadcaster interface {
	BroadcastToAuction(auctionID string, message interface{}) error
}

// LeaderElection gates work that must run on exactly one instance.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}
