package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/circuit-stream/ewaste-service/internal/models"

	"github.com/shopspring/decimal"
)

// Memory implements ItemRepository and BidRepository in process memory. The
// Postgres implementations enforce the bid state machine with row locks and
// status-guarded updates; Memory enforces the same invariants with a single
// mutex and explicit status compares, so the arbitration logic can be
// exercised without a database.
type Memory struct {
	mu         sync.Mutex
	items      map[int]*models.Item
	bids       map[int]*models.Bid
	quotas     map[int]int // recycler id -> max pending bids
	nextItemID int
	nextBidID  int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items:      make(map[int]*models.Item),
		bids:       make(map[int]*models.Bid),
		quotas:     make(map[int]int),
		nextItemID: 1,
		nextBidID:  1,
	}
}

// RegisterRecycler registers a recycler with its pending-bid quota. Bids from
// unregistered recyclers are refused, mirroring the database foreign key.
func (m *Memory) RegisterRecycler(recyclerID, maxPendingBids int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotas[recyclerID] = maxPendingBids
}

func (m *Memory) CreateItem(_ context.Context, item models.Item) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item.ID = m.nextItemID
	m.nextItemID++
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = &item

	copied := item
	return &copied, nil
}

func (m *Memory) GetItem(_ context.Context, itemID int) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, models.NewNotFoundError("item not found")
	}
	copied := *item
	return &copied, nil
}

func (m *Memory) GetItemByTag(_ context.Context, tag string) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.Tag == tag {
			copied := *item
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("item not found")
}

func (m *Memory) GetAvailableItems(_ context.Context, recyclerID, limit, offset int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []models.Item
	for _, item := range m.items {
		if item.Status != models.AvailableItem {
			continue
		}
		if m.hasBid(item.ID, recyclerID) {
			continue
		}
		items = append(items, *item)
	}
	sortItems(items)
	return page(items, limit, offset), nil
}

func (m *Memory) GetCoordinatorItems(_ context.Context, coordinatorID, limit, offset int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []models.Item
	for _, item := range m.items {
		if item.CoordinatorID == coordinatorID {
			items = append(items, *item)
		}
	}
	sortItems(items)
	return page(items, limit, offset), nil
}

func (m *Memory) GetDepartmentLeaderboard(_ context.Context, limit, offset int) ([]models.DepartmentStanding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	byDept := make(map[string]*models.DepartmentStanding)
	for _, item := range m.items {
		if item.Department == "" {
			continue
		}
		s, ok := byDept[item.Department]
		if !ok {
			s = &models.DepartmentStanding{Department: item.Department}
			byDept[item.Department] = s
		}
		s.TotalItems++
		switch item.Status {
		case models.AvailableItem:
			s.AvailableItems++
		case models.SoldItem:
			s.SoldItems++
		}
		if item.CreatedAt.After(now.AddDate(0, 0, -7)) {
			s.ItemsThisWeek++
		}
		if item.CreatedAt.After(now.AddDate(0, 0, -30)) {
			s.ItemsThisMonth++
		}
	}

	standings := make([]models.DepartmentStanding, 0, len(byDept))
	for _, s := range byDept {
		standings = append(standings, *s)
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].TotalItems != standings[j].TotalItems {
			return standings[i].TotalItems > standings[j].TotalItems
		}
		if standings[i].SoldItems != standings[j].SoldItems {
			return standings[i].SoldItems > standings[j].SoldItems
		}
		return standings[i].Department < standings[j].Department
	})
	standings = page(standings, limit, offset)
	for i := range standings {
		standings[i].Rank = offset + i + 1
	}
	return standings, nil
}

func (m *Memory) UpdateItemStatus(_ context.Context, itemID int, from, to models.ItemStatus) (*models.Item, error) {
	if !from.CanTransitionTo(to) {
		return nil, models.NewConflictError(fmt.Sprintf("cannot move item from %s to %s", from, to))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, models.NewNotFoundError("item not found")
	}
	if item.Status != from {
		return nil, models.NewConflictError("item status has changed, please refresh and retry")
	}
	item.Status = to
	item.UpdatedAt = time.Now().UTC()

	copied := *item
	return &copied, nil
}

func (m *Memory) PlaceBid(_ context.Context, recyclerID int, bidReq models.BidRequest) (*models.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	maxPending, ok := m.quotas[recyclerID]
	if !ok {
		return nil, models.NewUnauthenticatedError("recycler does not exist")
	}

	item, ok := m.items[bidReq.ItemID]
	if !ok {
		return nil, models.NewNotFoundError("item not found")
	}
	if item.Status != models.AvailableItem {
		return nil, models.NewConflictError("item is not available for bidding")
	}
	if m.hasBid(bidReq.ItemID, recyclerID) {
		return nil, models.NewConflictError("you have already placed a bid on this item")
	}

	pending := 0
	for _, bid := range m.bids {
		if bid.RecyclerID == recyclerID && bid.Status == models.PendingBid {
			pending++
		}
	}
	if pending >= maxPending {
		return nil, models.NewQuotaExceededError(fmt.Sprintf("you have reached your bidding limit of %d pending bids", maxPending))
	}

	now := time.Now().UTC()
	bid := &models.Bid{
		ID:         m.nextBidID,
		ItemID:     bidReq.ItemID,
		RecyclerID: recyclerID,
		Amount:     bidReq.Amount,
		Note:       bidReq.Note,
		Status:     models.PendingBid,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.nextBidID++
	m.bids[bid.ID] = bid

	copied := *bid
	return &copied, nil
}

func (m *Memory) AcceptBid(_ context.Context, bidID, coordinatorID int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bid, item, err := m.lookupDecision(bidID, coordinatorID)
	if err != nil {
		return err
	}
	if item.Status != models.AvailableItem {
		return models.NewConflictError("item is no longer available")
	}

	now := time.Now().UTC()
	bid.Status = models.AcceptedBid
	bid.DecisionReason = reason
	bid.UpdatedAt = now

	item.Status = models.SoldItem
	item.UpdatedAt = now

	for _, other := range m.bids {
		if other.ItemID == item.ID && other.ID != bid.ID && other.Status == models.PendingBid {
			other.Status = models.RejectedBid
			other.DecisionReason = models.RejectedBySystemReason
			other.UpdatedAt = now
		}
	}
	return nil
}

func (m *Memory) RejectBid(_ context.Context, bidID, coordinatorID int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bid, _, err := m.lookupDecision(bidID, coordinatorID)
	if err != nil {
		return err
	}

	bid.Status = models.RejectedBid
	bid.DecisionReason = reason
	bid.UpdatedAt = time.Now().UTC()
	return nil
}

// lookupDecision re-checks the decision preconditions under the lock: the bid
// exists, its item belongs to the coordinator and the bid is still pending.
func (m *Memory) lookupDecision(bidID, coordinatorID int) (*models.Bid, *models.Item, error) {
	bid, ok := m.bids[bidID]
	if !ok {
		return nil, nil, models.NewNotFoundError("bid not found or already processed")
	}
	item := m.items[bid.ItemID]
	if item == nil || item.CoordinatorID != coordinatorID {
		return nil, nil, models.NewNotFoundError("bid not found or already processed")
	}
	if bid.Status != models.PendingBid {
		return nil, nil, models.NewConflictError("bid has already been processed")
	}
	return bid, item, nil
}

func (m *Memory) GetRecyclerBids(_ context.Context, recyclerID, limit, offset int) ([]models.RecyclerBid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bids []models.RecyclerBid
	for _, bid := range m.bids {
		if bid.RecyclerID != recyclerID {
			continue
		}
		bids = append(bids, m.recyclerBid(bid))
	}
	sortRecyclerBids(bids)
	return page(bids, limit, offset), nil
}

func (m *Memory) GetPurchasedItems(_ context.Context, recyclerID, limit, offset int) ([]models.RecyclerBid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bids []models.RecyclerBid
	for _, bid := range m.bids {
		if bid.RecyclerID != recyclerID || bid.Status != models.AcceptedBid {
			continue
		}
		bids = append(bids, m.recyclerBid(bid))
	}
	sortRecyclerBids(bids)
	return page(bids, limit, offset), nil
}

func (m *Memory) GetCoordinatorBids(_ context.Context, coordinatorID, limit, offset int) ([]models.CoordinatorBid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bids []models.CoordinatorBid
	for _, bid := range m.bids {
		item := m.items[bid.ItemID]
		if item == nil || item.CoordinatorID != coordinatorID {
			continue
		}
		bids = append(bids, models.CoordinatorBid{
			Bid:          *bid,
			ItemTag:      item.Tag,
			ItemCategory: item.Category,
		})
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].ID > bids[j].ID })
	return page(bids, limit, offset), nil
}

func (m *Memory) GetRecyclerStats(_ context.Context, recyclerID int) (*models.RecyclerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := models.RecyclerStats{TotalSpent: decimal.Zero}
	for _, bid := range m.bids {
		if bid.RecyclerID != recyclerID {
			continue
		}
		stats.TotalBids++
		switch bid.Status {
		case models.PendingBid:
			stats.PendingBids++
		case models.AcceptedBid:
			stats.AcceptedBids++
			stats.TotalSpent = stats.TotalSpent.Add(bid.Amount)
		}
	}
	stats.PurchasedItems = stats.AcceptedBids
	return &stats, nil
}

func (m *Memory) GetCoordinatorStats(_ context.Context, coordinatorID int) (*models.CoordinatorStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := models.CoordinatorStats{TotalRevenue: decimal.Zero}
	for _, item := range m.items {
		if item.CoordinatorID != coordinatorID {
			continue
		}
		stats.TotalItems++
		switch item.Status {
		case models.AvailableItem:
			stats.AvailableItems++
		case models.SoldItem:
			stats.SoldItems++
		}
	}
	for _, bid := range m.bids {
		item := m.items[bid.ItemID]
		if item == nil || item.CoordinatorID != coordinatorID {
			continue
		}
		switch bid.Status {
		case models.PendingBid:
			stats.PendingBids++
		case models.AcceptedBid:
			stats.AcceptedBids++
			stats.TotalRevenue = stats.TotalRevenue.Add(bid.Amount)
		case models.RejectedBid:
			stats.RejectedBids++
		}
	}
	return &stats, nil
}

func (m *Memory) recyclerBid(bid *models.Bid) models.RecyclerBid {
	rb := models.RecyclerBid{Bid: *bid}
	if item := m.items[bid.ItemID]; item != nil {
		rb.ItemTag = item.Tag
		rb.ItemCategory = item.Category
		rb.ItemSerialNo = item.SerialNo
		rb.ItemStatus = item.Status
	}
	return rb
}

// hasBid must be called with the mutex held.
func (m *Memory) hasBid(itemID, recyclerID int) bool {
	for _, bid := range m.bids {
		if bid.ItemID == itemID && bid.RecyclerID == recyclerID {
			return true
		}
	}
	return false
}

func sortItems(items []models.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
}

func sortRecyclerBids(bids []models.RecyclerBid) {
	sort.Slice(bids, func(i, j int) bool { return bids[i].ID > bids[j].ID })
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
