package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-service/internal/domain"
	"auction-service/pkg/logger"
	"auction-service/pkg/utils"
)

// AuctionLifecycle owns every business rule of the auction state machine:
// ingestion, bid acceptance, the Pending -> Open -> Closed transitions, winner
// determination and pickup marking. The store is a dumb conditional-write
// primitive; each state-changing operation here does an advisory read for
// error messaging and then a conditional write whose modified count is the
// actual arbiter, so concurrent callers race on the store filter instead of
// on locks.
type AuctionLifecycle struct {
	store    domain.AuctionStore
	listings domain.ListingSource
	eventPub domain.EventPublisher
	log      logger.Logger
}

func NewAuctionLifecycle(
	store domain.AuctionStore,
	listings domain.ListingSource,
	eventPub domain.EventPublisher,
	log logger.Logger,
) *AuctionLifecycle {
	return &AuctionLifecycle{
		store:    store,
		listings: listings,
		eventPub: eventPub,
		log:      log,
	}
}

// Ingest pulls the catalog from the listing source and creates one Pending
// auction per listing that has none yet. A listing source failure degrades to
// an empty result; store failures propagate. The unique listing_id index is
// what makes re-ingestion idempotent: the Exists check only saves pointless
// snapshot work, the duplicate-key path on insert is authoritative.
func (s *AuctionLifecycle) Ingest(ctx context.Context) ([]*domain.Auction, error) {
	listings, err := s.listings.FetchAllListings(ctx)
	if err != nil {
		s.log.Warn("Listing source unavailable, ingesting nothing", "error", err)
		return []*domain.Auction{}, nil
	}
	if len(listings) == 0 {
		s.log.Warn("No listings returned from listing source")
		return []*domain.Auction{}, nil
	}

	created := []*domain.Auction{}

	for _, listing := range listings {
		exists, err := s.store.ExistsForListing(ctx, listing.ID)
		if err != nil {
			return created, err
		}
		if exists {
			s.log.Debug("Skipping listing, auction already exists", "listing_id", listing.ID)
			continue
		}

		auction := &domain.Auction{
			ID:              utils.GenerateID("auction"),
			ListingID:       listing.ID,
			ListingSnapshot: listing,
			Status:          domain.AuctionPending,
			CurrentBid:      0,
			BidHistory:      []domain.Bid{},
			AuctionDate:     time.Now().UTC(),
		}

		if err := s.store.Insert(ctx, auction); err != nil {
			if errors.Is(err, domain.ErrDuplicateListing) {
				s.log.Debug("Lost ingestion race, auction already exists", "listing_id", listing.ID)
				continue
			}
			return created, err
		}
		created = append(created, auction)
	}

	s.log.Info("Ingested new auctions from listings", "count", len(created))
	return created, nil
}

// PlaceBid accepts a bid through one conditional write whose filter encodes
// every precondition: the auction exists, is Open, and the amount beats the
// current bid. Zero modified documents means some precondition failed or a
// concurrent bid won; the store cannot tell which, so the caller gets
// ErrBidRejected either way.
func (s *AuctionLifecycle) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (*domain.Auction, error) {
	entry := domain.Bid{
		BidderID: bidderID,
		Amount:   amount,
		PlacedAt: time.Now().UTC(),
	}

	modified, err := s.store.ApplyBid(ctx, auctionID, entry)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, domain.ErrBidRejected
	}

	updated, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrAuctionNotFound
	}

	s.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Timestamp: entry.PlacedAt,
	})

	s.log.Info("Bid accepted", "auction_id", auctionID, "bidder_id", bidderID, "amount", amount)
	return updated, nil
}

// Open transitions a Pending auction to Open. The preceding read only shapes
// the error; the conditional write on {id, status=Pending} decides, so of two
// concurrent opens exactly one succeeds.
func (s *AuctionLifecycle) Open(ctx context.Context, auctionID string) (*domain.Auction, error) {
	existing, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrAuctionNotFound
	}
	if existing.Status != domain.AuctionPending {
		return nil, fmt.Errorf("%w: cannot open auction in status %s", domain.ErrInvalidTransition, existing.Status)
	}

	modified, err := s.store.OpenPending(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		// Concurrent opener won the race.
		return nil, fmt.Errorf("%w: auction no longer pending", domain.ErrInvalidTransition)
	}

	updated, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrAuctionNotFound
	}

	s.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionOpened,
		AuctionID: auctionID,
		Timestamp: time.Now().UTC(),
	})

	s.log.Info("Auction opened", "auction_id", auctionID)
	return updated, nil
}

// Close transitions an Open auction to Closed, freezing winner_id and
// winning_bid from the values read just before the conditional write. A bid
// accepted between that read and the write stays in the history but is not
// reflected in the frozen winner fields.
func (s *AuctionLifecycle) Close(ctx context.Context, auctionID string) (*domain.Auction, error) {
	existing, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrAuctionNotFound
	}
	if existing.Status != domain.AuctionOpen {
		return nil, fmt.Errorf("%w: cannot close auction in status %s", domain.ErrInvalidTransition, existing.Status)
	}

	modified, err := s.store.CloseOpen(ctx, auctionID, existing.CurrentBidder, existing.CurrentBid)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, fmt.Errorf("%w: auction no longer open", domain.ErrInvalidTransition)
	}

	updated, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrAuctionNotFound
	}

	s.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionClosed,
		AuctionID: auctionID,
		BidderID:  existing.CurrentBidder,
		Amount:    existing.CurrentBid,
		Timestamp: time.Now().UTC(),
	})

	s.log.Info("Auction closed",
		"auction_id", auctionID,
		"winner_id", existing.CurrentBidder,
		"winning_bid", existing.CurrentBid)
	return updated, nil
}

// GetWinner returns the frozen winner of a Closed auction.
func (s *AuctionLifecycle) GetWinner(ctx context.Context, auctionID string) (*domain.AuctionWinner, error) {
	auction, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, domain.ErrAuctionNotFound
	}
	if auction.Status != domain.AuctionClosed {
		return nil, domain.ErrAuctionNotClosed
	}

	return &domain.AuctionWinner{
		AuctionID:  auction.ID,
		WinnerID:   auction.WinnerID,
		WinningBid: auction.WinningBid,
	}, nil
}

// MarkPickedUp sets picked_up on any existing auction regardless of status.
// Repeat calls are no-ops.
func (s *AuctionLifecycle) MarkPickedUp(ctx context.Context, auctionID string) (*domain.Auction, error) {
	updated, err := s.store.SetPickedUp(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrAuctionNotFound
	}

	s.log.Info("Auction marked picked up", "auction_id", auctionID)
	return updated, nil
}

// ListByStatus returns auctions in the given status, or every auction when
// status is nil.
func (s *AuctionLifecycle) ListByStatus(ctx context.Context, status *domain.AuctionStatus) ([]*domain.Auction, error) {
	auctions, err := s.store.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if auctions == nil {
		auctions = []*domain.Auction{}
	}
	return auctions, nil
}

// ListByWinner returns the closed auctions won by the given bidder.
func (s *AuctionLifecycle) ListByWinner(ctx context.Context, winnerID string) ([]*domain.Auction, error) {
	auctions, err := s.store.FindByWinner(ctx, winnerID)
	if err != nil {
		return nil, err
	}
	if auctions == nil {
		auctions = []*domain.Auction{}
	}
	return auctions, nil
}

// Get is a plain point lookup.
func (s *AuctionLifecycle) Get(ctx context.Context, auctionID string) (*domain.Auction, error) {
	auction, err := s.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, domain.ErrAuctionNotFound
	}
	return auction, nil
}

// Events are best-effort; a publish failure never fails the operation that
// produced it.
func (s *AuctionLifecycle) publish(ctx context.Context, event *domain.AuctionEvent) {
	if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish auction event",
			"type", event.Type, "auction_id", event.AuctionID, "error", err)
	}
}
