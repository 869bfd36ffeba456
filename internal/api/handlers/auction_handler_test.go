package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"auction-service/internal/domain"

	"github.com/labstack/echo/v4"
)

type stubService struct {
	auction *domain.Auction
	winner  *domain.AuctionWinner
	list    []*domain.Auction
	err     error

	gotStatus *domain.AuctionStatus
	gotBidder string
	gotAmount float64
}

func (s *stubService) Ingest(ctx context.Context) ([]*domain.Auction, error) {
	return s.list, s.err
}

func (s *stubService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (*domain.Auction, error) {
	s.gotBidder = bidderID
	s.gotAmount = amount
	return s.auction, s.err
}

func (s *stubService) Open(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.auction, s.err
}

func (s *stubService) Close(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.auction, s.err
}

func (s *stubService) GetWinner(ctx context.Context, auctionID string) (*domain.AuctionWinner, error) {
	return s.winner, s.err
}

func (s *stubService) MarkPickedUp(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.auction, s.err
}

func (s *stubService) ListByStatus(ctx context.Context, status *domain.AuctionStatus) ([]*domain.Auction, error) {
	s.gotStatus = status
	return s.list, s.err
}

func (s *stubService) ListByWinner(ctx context.Context, winnerID string) ([]*domain.Auction, error) {
	return s.list, s.err
}

func (s *stubService) Get(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.auction, s.err
}

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Fatal(msg string, keysAndValues ...interface{}) {}

func doRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestPlaceBidReturnsUpdatedAuction(t *testing.T) {
	svc := &stubService{auction: &domain.Auction{ID: "a1", Status: domain.AuctionOpen, CurrentBid: 50}}
	h := NewAuctionHandler(svc, noopLogger{})

	c, rec := doRequest(http.MethodPost, "/api/v1/auctions/a1/bid", `{"bidder_id":"U1","amount":50}`)
	c.SetParamNames("id")
	c.SetParamValues("a1")

	if err := h.PlaceBid(c); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.gotBidder != "U1" || svc.gotAmount != 50 {
		t.Fatalf("service called with %s/%v, want U1/50", svc.gotBidder, svc.gotAmount)
	}

	var got domain.Auction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.CurrentBid != 50 {
		t.Fatalf("response current_bid = %v, want 50", got.CurrentBid)
	}
}

func TestPlaceBidValidation(t *testing.T) {
	h := NewAuctionHandler(&stubService{}, noopLogger{})

	cases := []struct {
		name string
		body string
	}{
		{"missing bidder", `{"amount":50}`},
		{"non-positive amount", `{"bidder_id":"U1","amount":0}`},
		{"garbage body", `{"amount":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := doRequest(http.MethodPost, "/api/v1/auctions/a1/bid", tc.body)
			c.SetParamNames("id")
			c.SetParamValues("a1")

			if err := h.PlaceBid(c); err != nil {
				t.Fatalf("PlaceBid: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrAuctionNotFound, http.StatusNotFound},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict},
		{"bid rejected", domain.ErrBidRejected, http.StatusConflict},
		{"not closed", domain.ErrAuctionNotClosed, http.StatusConflict},
		{"unknown error", errors.New("x"), http.StatusInternalServerError},
		{"store failure", domain.NewStoreError("get", errors.New("down")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuctionHandler(&stubService{err: tc.err}, noopLogger{})

			c, rec := doRequest(http.MethodPost, "/api/v1/auctions/a1/open", "")
			c.SetParamNames("id")
			c.SetParamValues("a1")

			if err := h.OpenAuction(c); err != nil {
				t.Fatalf("OpenAuction: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestListAuctionsStatusFilter(t *testing.T) {
	svc := &stubService{list: []*domain.Auction{}}
	h := NewAuctionHandler(svc, noopLogger{})

	c, rec := doRequest(http.MethodGet, "/api/v1/auctions?status=open", "")
	if err := h.ListAuctions(c); err != nil {
		t.Fatalf("ListAuctions: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.gotStatus == nil || *svc.gotStatus != domain.AuctionOpen {
		t.Fatalf("service status filter = %v, want Open", svc.gotStatus)
	}

	c, rec = doRequest(http.MethodGet, "/api/v1/auctions?status=bogus", "")
	if err := h.ListAuctions(c); err != nil {
		t.Fatalf("ListAuctions: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus status = %d, want 400", rec.Code)
	}
}

func TestGenerateFromListings(t *testing.T) {
	svc := &stubService{list: []*domain.Auction{{ID: "a1"}, {ID: "a2"}}}
	h := NewAuctionHandler(svc, noopLogger{})

	c, rec := doRequest(http.MethodPost, "/api/v1/auctions/generate-from-listings", "")
	if err := h.GenerateFromListings(c); err != nil {
		t.Fatalf("GenerateFromListings: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "2 auctions created." || len(resp.Auctions) != 2 {
		t.Fatalf("response = %q with %d auctions", resp.Message, len(resp.Auctions))
	}
}

func TestGetWinnerNotFound(t *testing.T) {
	h := NewAuctionHandler(&stubService{err: domain.ErrAuctionNotFound}, noopLogger{})

	c, rec := doRequest(http.MethodGet, "/api/v1/auctions/a1/winner", "")
	c.SetParamNames("id")
	c.SetParamValues("a1")

	if err := h.GetWinner(c); err != nil {
		t.Fatalf("GetWinner: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
