package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"auction-service/internal/domain"
	"auction-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuctionService is the slice of the lifecycle service the HTTP layer needs.
type AuctionService interface {
	Ingest(ctx context.Context) ([]*domain.Auction, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (*domain.Auction, error)
	Open(ctx context.Context, auctionID string) (*domain.Auction, error)
	Close(ctx context.Context, auctionID string) (*domain.Auction, error)
	GetWinner(ctx context.Context, auctionID string) (*domain.AuctionWinner, error)
	MarkPickedUp(ctx context.Context, auctionID string) (*domain.Auction, error)
	ListByStatus(ctx context.Context, status *domain.AuctionStatus) ([]*domain.Auction, error)
	ListByWinner(ctx context.Context, winnerID string) ([]*domain.Auction, error)
	Get(ctx context.Context, auctionID string) (*domain.Auction, error)
}

type AuctionHandler struct {
	service AuctionService
	log     logger.Logger
}

func NewAuctionHandler(service AuctionService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		service: service,
		log:     log,
	}
}

type BidRequest struct {
	BidderID string  `json:"bidder_id"`
	Amount   float64 `json:"amount"`
}

type IngestResponse struct {
	Message  string            `json:"message"`
	Auctions []*domain.Auction `json:"auctions"`
}

func (h *AuctionHandler) GenerateFromListings(c echo.Context) error {
	auctions, err := h.service.Ingest(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, IngestResponse{
		Message:  fmt.Sprintf("%d auctions created.", len(auctions)),
		Auctions: auctions,
	})
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	var status *domain.AuctionStatus
	if raw := c.QueryParam("status"); raw != "" {
		parsed, err := domain.ParseAuctionStatus(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		status = &parsed
	}

	auctions, err := h.service.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, auctions)
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	auctionID := c.Param("id")

	var req BidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.BidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bidder_id is required"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
	}

	auction, err := h.service.PlaceBid(c.Request().Context(), auctionID, req.BidderID, req.Amount)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) OpenAuction(c echo.Context) error {
	auction, err := h.service.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) CloseAuction(c echo.Context) error {
	auction, err := h.service.Close(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) GetWinner(c echo.Context) error {
	winner, err := h.service.GetWinner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, winner)
}

func (h *AuctionHandler) MarkPickedUp(c echo.Context) error {
	auction, err := h.service.MarkPickedUp(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) ListByWinner(c echo.Context) error {
	auctions, err := h.service.ListByWinner(c.Request().Context(), c.Param("winnerId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, auctions)
}

// writeError maps the outcome taxonomy onto HTTP statuses. Store failures are
// the only 500s; guard failures are conflicts.
func (h *AuctionHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrBidRejected),
		errors.Is(err, domain.ErrAuctionNotClosed):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.log.Error("Request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
