package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BidStatus string // Status of a recycler's bid

const (
	PendingBid  BidStatus = "pending"  // Bid is awaiting a decision
	AcceptedBid BidStatus = "accepted" // Bid was accepted by the coordinator
	RejectedBid BidStatus = "rejected" // Bid was rejected
)

// RejectedBySystemReason is recorded on bids that lose to an accepted
// competitor during the acceptance transaction.
const RejectedBySystemReason = "another bid was accepted for this item"

// bidTransitions lists the allowed status transitions for bids. Accepted and
// rejected are terminal.
var bidTransitions = map[BidStatus][]BidStatus{
	PendingBid:  {AcceptedBid, RejectedBid},
	AcceptedBid: {},
	RejectedBid: {},
}

// CanTransitionTo reports whether the status change is present in the
// transition table.
func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	for _, allowed := range bidTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the bid can no longer change status.
func (s BidStatus) Terminal() bool {
	return len(bidTransitions[s]) == 0
}

// Bid represents one recycler's offer on one item. A recycler may hold at
// most one bid per item.
type Bid struct {
	ID             int             `json:"id"`
	ItemID         int             `json:"itemId"`
	RecyclerID     int             `json:"recyclerId"`
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note,omitempty"`
	Status         BidStatus       `json:"status"`
	DecisionReason string          `json:"decisionReason,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// BidRequest represents the request body for placing a bid.
type BidRequest struct {
	ItemID int             `json:"itemId"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// DecisionRequest represents the request body for accepting or rejecting a bid.
type DecisionRequest struct {
	Reason string `json:"reason"`
}

// RecyclerBid is a bid joined with details of the item it targets.
type RecyclerBid struct {
	Bid
	ItemTag      string     `json:"itemTag"`
	ItemCategory string     `json:"itemCategory"`
	ItemSerialNo string     `json:"itemSerialNo"`
	ItemStatus   ItemStatus `json:"itemStatus"`
}

// CoordinatorBid is a bid joined with details of the recycler who placed it.
type CoordinatorBid struct {
	Bid
	ItemTag         string `json:"itemTag"`
	ItemCategory    string `json:"itemCategory"`
	RecyclerCompany string `json:"recyclerCompany"`
	RecyclerContact string `json:"recyclerContact"`
}

// RecyclerStats aggregates a recycler's bidding activity.
type RecyclerStats struct {
	TotalBids      int             `json:"totalBids"`
	PendingBids    int             `json:"pendingBids"`
	AcceptedBids   int             `json:"acceptedBids"`
	PurchasedItems int             `json:"purchasedItems"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
}

// CoordinatorStats aggregates item and bid counts across a coordinator's
// items. Counts are computed from the items and bids tables directly.
type CoordinatorStats struct {
	TotalItems     int             `json:"totalItems"`
	AvailableItems int             `json:"availableItems"`
	SoldItems      int             `json:"soldItems"`
	PendingBids    int             `json:"pendingBids"`
	AcceptedBids   int             `json:"acceptedBids"`
	RejectedBids   int             `json:"rejectedBids"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}
