package models

import "time"

type ItemStatus string // Lifecycle status of a registered e-waste item

const (
	AvailableItem ItemStatus = "available" // Item is open for bidding
	SoldItem      ItemStatus = "sold"      // A bid has been accepted
	RecycledItem  ItemStatus = "recycled"  // Item has been processed by the recycler
	DisposedItem  ItemStatus = "disposed"  // Item reached final disposal
)

// itemTransitions lists the allowed status transitions for items. An item is
// moved to "sold" only by the bid acceptance transaction; the later lifecycle
// states are reached through the coordinator's status updates.
var itemTransitions = map[ItemStatus][]ItemStatus{
	AvailableItem: {SoldItem},
	SoldItem:      {RecycledItem},
	RecycledItem:  {DisposedItem},
	DisposedItem:  {},
}

// CanTransitionTo reports whether the status change is present in the
// transition table. Repositories refuse any change that is not listed here.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, allowed := range itemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Item represents one decommissioned device registered for disposal.
type Item struct {
	ID            int        `json:"id"`
	Tag           string     `json:"tag"`
	CoordinatorID int        `json:"coordinatorId"`
	Category      string     `json:"category"`
	Department    string     `json:"department"`
	SerialNo      string     `json:"serialNo"`
	ItemURL       string     `json:"itemUrl"`
	Status        ItemStatus `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// DepartmentStanding is one leaderboard row: a department ranked by how many
// items it has registered and sold.
type DepartmentStanding struct {
	Rank           int    `json:"rank"`
	Department     string `json:"department"`
	TotalItems     int    `json:"totalItems"`
	AvailableItems int    `json:"availableItems"`
	SoldItems      int    `json:"soldItems"`
	ItemsThisWeek  int    `json:"itemsThisWeek"`
	ItemsThisMonth int    `json:"itemsThisMonth"`
}

// ItemRequest represents the request body for registering an item.
type ItemRequest struct {
	Category   string `json:"category"`
	Department string `json:"department"`
	SerialNo   string `json:"serialNo"`
}

// ItemStatusRequest represents the request body for a lifecycle status update.
type ItemStatusRequest struct {
	Status ItemStatus `json:"status"`
}
