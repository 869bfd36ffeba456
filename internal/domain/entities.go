package domain

import (
	"fmt"
	"time"
)

// Auction is the persisted document: one auction per sourced listing.
type Auction struct {
	ID              string        `bson:"_id" json:"id"`
	ListingID       string        `bson:"listing_id" json:"listing_id"`
	ListingSnapshot Listing       `bson:"listing_snapshot" json:"listing_snapshot"`
	Status          AuctionStatus `bson:"status" json:"status"`
	CurrentBid      float64       `bson:"current_bid" json:"current_bid"`
	CurrentBidder   string        `bson:"current_bidder,omitempty" json:"current_bidder,omitempty"`
	BidHistory      []Bid         `bson:"bid_history" json:"bid_history"`
	WinnerID        string        `bson:"winner_id,omitempty" json:"winner_id,omitempty"`
	WinningBid      float64       `bson:"winning_bid,omitempty" json:"winning_bid,omitempty"`
	PickedUp        bool          `bson:"picked_up" json:"picked_up"`
	AuctionDate     time.Time     `bson:"auction_date" json:"auction_date"`
	EndsAt          *time.Time    `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
}

// Bid entries are immutable once appended; history order is chronological.
type Bid struct {
	BidderID string    `bson:"bidder_id" json:"bidder_id"`
	Amount   float64   `bson:"amount" json:"amount"`
	PlacedAt time.Time `bson:"placed_at" json:"placed_at"`
}

// Listing is the external catalog record. The copy embedded in an auction is a
// snapshot taken at creation time and is never refreshed.
type Listing struct {
	ID            string   `bson:"_id" json:"id"`
	Name          string   `bson:"name" json:"name"`
	AssessedPrice float64  `bson:"assessed_price" json:"assessed_price"`
	Description   string   `bson:"description" json:"description"`
	Category      string   `bson:"category" json:"category"`
	Location      string   `bson:"location" json:"location"`
	SellerID      string   `bson:"seller_id" json:"seller_id"`
	Images        []string `bson:"images" json:"images"`
}

type AuctionStatus string

const (
	AuctionPending AuctionStatus = "Pending"
	AuctionOpen    AuctionStatus = "Open"
	AuctionClosed  AuctionStatus = "Closed"
)

func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionPending, AuctionOpen, AuctionClosed:
		return true
	}
	return false
}

func (s AuctionStatus) String() string {
	return string(s)
}

func ParseAuctionStatus(raw string) (AuctionStatus, error) {
	switch raw {
	case "Pending", "pending":
		return AuctionPending, nil
	case "Open", "open":
		return AuctionOpen, nil
	case "Closed", "closed":
		return AuctionClosed, nil
	}
	return "", fmt.Errorf("unknown auction status %q", raw)
}

// AuctionWinner is the read model returned once an auction has closed.
type AuctionWinner struct {
	AuctionID  string  `json:"auction_id"`
	WinnerID   string  `json:"winner_id"`
	WinningBid float64 `json:"winning_bid"`
}

type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	AuctionID string           `json:"auction_id"`
	BidderID  string           `json:"bidder_id,omitempty"`
	Amount    float64          `json:"amount,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type AuctionEventType string

const (
	EventAuctionOpened AuctionEventType = "auction_opened"
	EventBidAccepted   AuctionEventType = "bid_accepted"
	EventAuctionClosed AuctionEventType = "auction_closed"
)
