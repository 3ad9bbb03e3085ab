package services

import (
	"context"
	"fmt"

	"github.com/circuit-stream/ewaste-service/internal/models"
	"github.com/circuit-stream/ewaste-service/internal/repository"
	"github.com/circuit-stream/ewaste-service/internal/utils"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// qrSize is the QR image edge in pixels. 300px covers 30mm at 300 DPI, the
// minimum for printable asset labels.
const qrSize = 300

// ItemService handles item registration, listing and the post-sale lifecycle.
type ItemService struct {
	Repo        repository.ItemRepository
	WebsiteName string
}

// NewItemService creates a new ItemService.
func NewItemService(repo repository.ItemRepository, websiteName string) *ItemService {
	return &ItemService{Repo: repo, WebsiteName: websiteName}
}

// CreateItem registers a decommissioned device. Every item gets a fresh
// opaque tag and a public URL; the QR label encodes the URL.
func (s *ItemService) CreateItem(ctx context.Context, coordinatorID int, itemReq models.ItemRequest) (*models.Item, error) {
	if itemReq.Category == "" || itemReq.SerialNo == "" {
		return nil, models.NewValidationError("category and serialNo are required")
	}

	tag := uuid.NewString()
	item := models.Item{
		Tag:           tag,
		CoordinatorID: coordinatorID,
		Category:      itemReq.Category,
		Department:    itemReq.Department,
		SerialNo:      itemReq.SerialNo,
		ItemURL:       fmt.Sprintf("https://%s/item/%s", s.WebsiteName, tag),
		Status:        models.AvailableItem,
	}
	return s.Repo.CreateItem(ctx, item)
}

// GetItemByTag resolves a scanned QR label to its item. Tags are public, so
// no ownership check applies.
func (s *ItemService) GetItemByTag(ctx context.Context, tag string) (*models.Item, error) {
	if tag == "" {
		return nil, models.NewValidationError("tag is required")
	}
	return s.Repo.GetItemByTag(ctx, tag)
}

// GetDepartmentLeaderboard ranks departments by registered and sold items.
func (s *ItemService) GetDepartmentLeaderboard(ctx context.Context, limitStr, offsetStr string) ([]models.DepartmentStanding, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.Repo.GetDepartmentLeaderboard(ctx, limit, offset)
}

// GetAvailableItems lists items open for bidding, excluding those the
// recycler has already bid on.
func (s *ItemService) GetAvailableItems(ctx context.Context, recyclerID int, limitStr, offsetStr string) ([]models.Item, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.Repo.GetAvailableItems(ctx, recyclerID, limit, offset)
}

// GetCoordinatorItems lists the coordinator's own items.
func (s *ItemService) GetCoordinatorItems(ctx context.Context, coordinatorID int, limitStr, offsetStr string) ([]models.Item, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.Repo.GetCoordinatorItems(ctx, coordinatorID, limit, offset)
}

// QRCode renders the printable PNG label for an item. Only the owning
// coordinator may fetch it.
func (s *ItemService) QRCode(ctx context.Context, itemID, coordinatorID int) ([]byte, error) {
	item, err := s.Repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CoordinatorID != coordinatorID {
		return nil, models.NewAuthorizationError("item belongs to another coordinator")
	}

	png, err := qrcode.Encode(item.ItemURL, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("can't encode qr code: %w", err)
	}
	return png, nil
}

// UpdateStatus moves an item through the post-sale lifecycle
// (sold -> recycled -> disposed). Selling happens only through bid
// acceptance, so "sold" is not a valid target here.
func (s *ItemService) UpdateStatus(ctx context.Context, itemID, coordinatorID int, status models.ItemStatus) (*models.Item, error) {
	if status != models.RecycledItem && status != models.DisposedItem {
		return nil, models.NewValidationError("status must be 'recycled' or 'disposed'; items are sold through bid acceptance")
	}

	item, err := s.Repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CoordinatorID != coordinatorID {
		return nil, models.NewAuthorizationError("item belongs to another coordinator")
	}

	return s.Repo.UpdateItemStatus(ctx, itemID, item.Status, status)
}
