package services

import (
	"context"

	"github.com/circuit-stream/ewaste-service/internal/models"
	"github.com/circuit-stream/ewaste-service/internal/repository"
	"github.com/circuit-stream/ewaste-service/internal/utils"
)

// Default reasons recorded when the coordinator decides without a comment.
const (
	defaultAcceptReason = "bid accepted by coordinator"
	defaultRejectReason = "bid rejected by coordinator"
)

// BidService validates bid requests and delegates the state transitions to
// the repository, which owns the transaction boundary.
type BidService struct {
	Repo repository.BidRepository
}

// NewBidService creates a new BidService.
func NewBidService(repo repository.BidRepository) *BidService {
	return &BidService{Repo: repo}
}

// PlaceBid validates the request shape and inserts a pending bid.
func (s *BidService) PlaceBid(ctx context.Context, recyclerID int, bidReq models.BidRequest) (*models.Bid, error) {
	if bidReq.ItemID <= 0 {
		return nil, models.NewValidationError("itemId is required")
	}
	if !bidReq.Amount.IsPositive() {
		return nil, models.NewValidationError("bid amount must be greater than zero")
	}
	return s.Repo.PlaceBid(ctx, recyclerID, bidReq)
}

// AcceptBid accepts a pending bid on one of the coordinator's items. The
// accept is atomic: the item is marked sold and all competing pending bids
// are rejected, or nothing changes at all.
func (s *BidService) AcceptBid(ctx context.Context, bidID, coordinatorID int, reason string) error {
	if bidID <= 0 {
		return models.NewValidationError("invalid bid id")
	}
	if reason == "" {
		reason = defaultAcceptReason
	}
	return s.Repo.AcceptBid(ctx, bidID, coordinatorID, reason)
}

// RejectBid rejects a single pending bid on one of the coordinator's items.
func (s *BidService) RejectBid(ctx context.Context, bidID, coordinatorID int, reason string) error {
	if bidID <= 0 {
		return models.NewValidationError("invalid bid id")
	}
	if reason == "" {
		reason = defaultRejectReason
	}
	return s.Repo.RejectBid(ctx, bidID, coordinatorID, reason)
}

// GetRecyclerBids returns the recycler's bid history with item details.
func (s *BidService) GetRecyclerBids(ctx context.Context, recyclerID int, limitStr, offsetStr string) ([]models.RecyclerBid, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.Repo.GetRecyclerBids(ctx, recyclerID, limit, offset)
}

// GetPurchasedItems returns the recycler's accepted bids with item details.
func (s *BidService) GetPurchasedItems(ctx context.Context, recyclerID int, limitStr, offsetStr string) ([]models.RecyclerBid, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.Repo.GetPurchasedItems(ctx, recyclerID, limit, offset)
}

// GetCoordinatorBids returns all bids placed on the coordinator's items.
func (s *BidService) GetCoordinatorBids(ctx context.Context, coordinatorID int, limitStr, offsetStr string) ([]models.CoordinatorBid, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.Repo.GetCoordinatorBids(ctx, coordinatorID, limit, offset)
}

// GetRecyclerStats returns the recycler's aggregate bid counts.
func (s *BidService) GetRecyclerStats(ctx context.Context, recyclerID int) (*models.RecyclerStats, error) {
	return s.Repo.GetRecyclerStats(ctx, recyclerID)
}

// GetCoordinatorStats returns the coordinator's dashboard aggregates.
func (s *BidService) GetCoordinatorStats(ctx context.Context, coordinatorID int) (*models.CoordinatorStats, error) {
	return s.Repo.GetCoordinatorStats(ctx, coordinatorID)
}
