package mongodb

import (
	"context"
	"errors"
	"time"

	"auction-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return client, nil
}

// MongoAuctionStore implements domain.AuctionStore over one auctions
// collection. Precondition filters live here; interpreting the modified
// counts is the lifecycle service's job.
type MongoAuctionStore struct {
	coll *mongo.Collection
}

func NewMongoAuctionStore(coll *mongo.Collection) *MongoAuctionStore {
	return &MongoAuctionStore{coll: coll}
}

// EnsureIndexes creates the unique listing_id index. Ingestion depends on it:
// a duplicate-key failure on insert is what makes "one auction per listing"
// hold under concurrent ingestion runs.
func (s *MongoAuctionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "listing_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return domain.NewStoreError("ensure indexes", err)
	}
	return nil
}

func (s *MongoAuctionStore) Get(ctx context.Context, auctionID string) (*domain.Auction, error) {
	var auction domain.Auction
	err := s.coll.FindOne(ctx, bson.M{"_id": auctionID}).Decode(&auction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, domain.NewStoreError("get auction", err)
	}
	return &auction, nil
}

func (s *MongoAuctionStore) Insert(ctx context.Context, auction *domain.Auction) error {
	_, err := s.coll.InsertOne(ctx, auction)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateListing
		}
		return domain.NewStoreError("insert auction", err)
	}
	return nil
}

func (s *MongoAuctionStore) ExistsForListing(ctx context.Context, listingID string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx,
		bson.M{"listing_id": listingID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, domain.NewStoreError("exists for listing", err)
	}
	return count > 0, nil
}

func (s *MongoAuctionStore) ApplyBid(ctx context.Context, auctionID string, entry domain.Bid) (int64, error) {
	filter := bson.M{
		"_id":         auctionID,
		"status":      domain.AuctionOpen,
		"current_bid": bson.M{"$lt": entry.Amount},
	}
	update := bson.M{
		"$set": bson.M{
			"current_bid":    entry.Amount,
			"current_bidder": entry.BidderID,
		},
		"$push": bson.M{"bid_history": entry},
	}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, domain.NewStoreError("apply bid", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoAuctionStore) OpenPending(ctx context.Context, auctionID string) (int64, error) {
	filter := bson.M{"_id": auctionID, "status": domain.AuctionPending}
	update := bson.M{"$set": bson.M{"status": domain.AuctionOpen}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, domain.NewStoreError("open auction", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoAuctionStore) CloseOpen(ctx context.Context, auctionID, winnerID string, winningBid float64) (int64, error) {
	filter := bson.M{"_id": auctionID, "status": domain.AuctionOpen}
	update := bson.M{"$set": bson.M{
		"status":      domain.AuctionClosed,
		"winner_id":   winnerID,
		"winning_bid": winningBid,
	}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, domain.NewStoreError("close auction", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoAuctionStore) SetPickedUp(ctx context.Context, auctionID string) (*domain.Auction, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Auction
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": auctionID},
		bson.M{"$set": bson.M{"picked_up": true}},
		opts,
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, domain.NewStoreError("set picked up", err)
	}
	return &updated, nil
}

func (s *MongoAuctionStore) FindByStatus(ctx context.Context, status *domain.AuctionStatus) ([]*domain.Auction, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}
	return s.findMany(ctx, "find by status", filter)
}

func (s *MongoAuctionStore) FindByWinner(ctx context.Context, winnerID string) ([]*domain.Auction, error) {
	filter := bson.M{
		"status":    domain.AuctionClosed,
		"winner_id": winnerID,
	}
	return s.findMany(ctx, "find by winner", filter)
}

func (s *MongoAuctionStore) FindExpiredOpen(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	// Documents without ends_at never match the $lte and are left alone.
	filter := bson.M{
		"status":  domain.AuctionOpen,
		"ends_at": bson.M{"$lte": now},
	}
	return s.findMany(ctx, "find expired open", filter)
}

func (s *MongoAuctionStore) findMany(ctx context.Context, op string, filter bson.M) ([]*domain.Auction, error) {
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, domain.NewStoreError(op, err)
	}
	defer cursor.Close(ctx)

	var auctions []*domain.Auction
	if err := cursor.All(ctx, &auctions); err != nil {
		return nil, domain.NewStoreError(op, err)
	}
	return auctions, nil
}
