package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/circuit-stream/ewaste-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCoordinator  = 1
	otherCoordinator = 2
	recyclerA        = 10
	recyclerB        = 11
	recyclerC        = 12
)

func newTestStore(t *testing.T) *Memory {
	t.Helper()
	store := NewMemory()
	store.RegisterRecycler(recyclerA, 5)
	store.RegisterRecycler(recyclerB, 5)
	store.RegisterRecycler(recyclerC, 5)
	return store
}

func addItem(t *testing.T, store *Memory, coordinatorID int) *models.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), models.Item{
		Tag:           "tag",
		CoordinatorID: coordinatorID,
		Category:      "laptop",
		SerialNo:      "SN-1",
		Status:        models.AvailableItem,
	})
	require.NoError(t, err)
	return item
}

func addBid(t *testing.T, store *Memory, itemID, recyclerID int, amount string) *models.Bid {
	t.Helper()
	bid, err := store.PlaceBid(context.Background(), recyclerID, models.BidRequest{
		ItemID: itemID,
		Amount: decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return bid
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	errResp, ok := err.(*models.ErrorResponse)
	require.True(t, ok, "expected *models.ErrorResponse, got %T: %v", err, err)
	assert.Equal(t, kind, errResp.Kind)
}

func TestPlaceBid(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending bid", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)

		bid := addBid(t, store, item.ID, recyclerA, "100")
		assert.Equal(t, models.PendingBid, bid.Status)
		assert.Equal(t, item.ID, bid.ItemID)
		assert.True(t, bid.Amount.Equal(decimal.RequireFromString("100")))
	})

	t.Run("item not found", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.PlaceBid(ctx, recyclerA, models.BidRequest{ItemID: 99, Amount: decimal.NewFromInt(10)})
		requireKind(t, err, models.KindNotFound)
	})

	t.Run("item not available", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		bid := addBid(t, store, item.ID, recyclerA, "100")
		require.NoError(t, store.AcceptBid(ctx, bid.ID, testCoordinator, ""))

		_, err := store.PlaceBid(ctx, recyclerB, models.BidRequest{ItemID: item.ID, Amount: decimal.NewFromInt(10)})
		requireKind(t, err, models.KindConflict)
	})

	t.Run("duplicate bid rejected", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		addBid(t, store, item.ID, recyclerA, "100")

		_, err := store.PlaceBid(ctx, recyclerA, models.BidRequest{ItemID: item.ID, Amount: decimal.NewFromInt(150)})
		requireKind(t, err, models.KindConflict)
	})

	t.Run("quota enforced", func(t *testing.T) {
		store := NewMemory()
		store.RegisterRecycler(recyclerA, 2)
		first := addItem(t, store, testCoordinator)
		second := addItem(t, store, testCoordinator)
		third := addItem(t, store, testCoordinator)

		addBid(t, store, first.ID, recyclerA, "10")
		addBid(t, store, second.ID, recyclerA, "10")

		_, err := store.PlaceBid(ctx, recyclerA, models.BidRequest{ItemID: third.ID, Amount: decimal.NewFromInt(10)})
		requireKind(t, err, models.KindQuotaExceeded)
	})

	t.Run("quota frees up after a decision", func(t *testing.T) {
		store := NewMemory()
		store.RegisterRecycler(recyclerA, 1)
		first := addItem(t, store, testCoordinator)
		second := addItem(t, store, testCoordinator)

		bid := addBid(t, store, first.ID, recyclerA, "10")
		_, err := store.PlaceBid(ctx, recyclerA, models.BidRequest{ItemID: second.ID, Amount: decimal.NewFromInt(10)})
		requireKind(t, err, models.KindQuotaExceeded)

		require.NoError(t, store.RejectBid(ctx, bid.ID, testCoordinator, ""))
		addBid(t, store, second.ID, recyclerA, "10")
	})

	t.Run("unknown recycler", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		_, err := store.PlaceBid(ctx, 999, models.BidRequest{ItemID: item.ID, Amount: decimal.NewFromInt(10)})
		requireKind(t, err, models.KindUnauthenticated)
	})
}

func TestAcceptBid(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades over competing pending bids", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		b1 := addBid(t, store, item.ID, recyclerA, "100")
		b2 := addBid(t, store, item.ID, recyclerB, "150")
		b3 := addBid(t, store, item.ID, recyclerC, "120")

		require.NoError(t, store.AcceptBid(ctx, b1.ID, testCoordinator, "best turnaround time"))

		got, err := store.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SoldItem, got.Status)

		winner := findBid(t, store, recyclerA, b1.ID)
		assert.Equal(t, models.AcceptedBid, winner.Status)
		assert.Equal(t, "best turnaround time", winner.DecisionReason)
		assert.True(t, winner.Amount.Equal(decimal.RequireFromString("100")))

		for _, loser := range []struct{ recycler, bid int }{{recyclerB, b2.ID}, {recyclerC, b3.ID}} {
			bid := findBid(t, store, loser.recycler, loser.bid)
			assert.Equal(t, models.RejectedBid, bid.Status)
			assert.Equal(t, models.RejectedBySystemReason, bid.DecisionReason)
		}
	})

	t.Run("bid not found", func(t *testing.T) {
		store := newTestStore(t)
		requireKind(t, store.AcceptBid(ctx, 42, testCoordinator, ""), models.KindNotFound)
	})

	t.Run("foreign coordinator gets not found", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		bid := addBid(t, store, item.ID, recyclerA, "100")

		requireKind(t, store.AcceptBid(ctx, bid.ID, otherCoordinator, ""), models.KindNotFound)

		got := findBid(t, store, recyclerA, bid.ID)
		assert.Equal(t, models.PendingBid, got.Status)
	})

	t.Run("terminal bid yields conflict and no mutation", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		bid := addBid(t, store, item.ID, recyclerA, "100")

		require.NoError(t, store.RejectBid(ctx, bid.ID, testCoordinator, "too low"))
		requireKind(t, store.AcceptBid(ctx, bid.ID, testCoordinator, ""), models.KindConflict)

		got := findBid(t, store, recyclerA, bid.ID)
		assert.Equal(t, models.RejectedBid, got.Status)
		assert.Equal(t, "too low", got.DecisionReason)
	})

	t.Run("second accept on the same item conflicts", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		b1 := addBid(t, store, item.ID, recyclerA, "100")
		b2 := addBid(t, store, item.ID, recyclerB, "150")

		require.NoError(t, store.AcceptBid(ctx, b1.ID, testCoordinator, ""))
		requireKind(t, store.AcceptBid(ctx, b2.ID, testCoordinator, ""), models.KindConflict)
	})
}

func TestRejectBid(t *testing.T) {
	ctx := context.Background()

	t.Run("single bid only, no cascade", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		b1 := addBid(t, store, item.ID, recyclerA, "100")
		b2 := addBid(t, store, item.ID, recyclerB, "150")

		require.NoError(t, store.RejectBid(ctx, b1.ID, testCoordinator, "too low"))

		assert.Equal(t, models.RejectedBid, findBid(t, store, recyclerA, b1.ID).Status)
		assert.Equal(t, models.PendingBid, findBid(t, store, recyclerB, b2.ID).Status)

		got, err := store.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AvailableItem, got.Status)
	})

	t.Run("repeat reject conflicts", func(t *testing.T) {
		store := newTestStore(t)
		item := addItem(t, store, testCoordinator)
		bid := addBid(t, store, item.ID, recyclerA, "100")

		require.NoError(t, store.RejectBid(ctx, bid.ID, testCoordinator, ""))
		requireKind(t, store.RejectBid(ctx, bid.ID, testCoordinator, ""), models.KindConflict)
	})
}

// TestAcceptBidConcurrent fires concurrent accepts at different pending bids
// on the same item and checks that exactly one wins.
func TestAcceptBidConcurrent(t *testing.T) {
	ctx := context.Background()

	const recyclers = 8
	store := NewMemory()
	item, err := store.CreateItem(ctx, models.Item{
		Tag:           "tag",
		CoordinatorID: testCoordinator,
		Category:      "server",
		SerialNo:      "SN-9",
		Status:        models.AvailableItem,
	})
	require.NoError(t, err)

	bidIDs := make([]int, 0, recyclers)
	for i := 0; i < recyclers; i++ {
		store.RegisterRecycler(100+i, 5)
		bid, err := store.PlaceBid(ctx, 100+i, models.BidRequest{
			ItemID: item.ID,
			Amount: decimal.NewFromInt(int64(50 + i)),
		})
		require.NoError(t, err)
		bidIDs = append(bidIDs, bid.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, recyclers)
	for i, bidID := range bidIDs {
		wg.Add(1)
		go func(i, bidID int) {
			defer wg.Done()
			errs[i] = store.AcceptBid(ctx, bidID, testCoordinator, "")
		}(i, bidID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireKind(t, err, models.KindConflict)
	}
	assert.Equal(t, 1, succeeded, "exactly one accept must win")

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SoldItem, got.Status)

	accepted := 0
	for i := 0; i < recyclers; i++ {
		bids, err := store.GetRecyclerBids(ctx, 100+i, 50, 0)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		switch bids[0].Status {
		case models.AcceptedBid:
			accepted++
		case models.RejectedBid:
		default:
			t.Fatalf("bid %d left in status %s", bids[0].ID, bids[0].Status)
		}
	}
	assert.Equal(t, 1, accepted, "single-winner invariant")
}

func TestGetAvailableItemsExcludesOwnBids(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	first := addItem(t, store, testCoordinator)
	second := addItem(t, store, testCoordinator)
	addBid(t, store, first.ID, recyclerA, "100")

	items, err := store.GetAvailableItems(ctx, recyclerA, 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)

	// the other recycler still sees both
	items, err = store.GetAvailableItems(ctx, recyclerB, 50, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGetItemByTag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	item, err := store.CreateItem(ctx, models.Item{
		Tag:           "a4f0c2d8",
		CoordinatorID: testCoordinator,
		Category:      "laptop",
		SerialNo:      "SN-1",
		Status:        models.AvailableItem,
	})
	require.NoError(t, err)

	t.Run("resolves the tag", func(t *testing.T) {
		got, err := store.GetItemByTag(ctx, "a4f0c2d8")
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, "laptop", got.Category)
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, err := store.GetItemByTag(ctx, "deadbeef")
		requireKind(t, err, models.KindNotFound)
	})
}

func TestGetDepartmentLeaderboard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seed := func(department string, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			_, err := store.CreateItem(ctx, models.Item{
				Tag:           department + "-" + string(rune('a'+i)),
				CoordinatorID: testCoordinator,
				Category:      "laptop",
				Department:    department,
				SerialNo:      "SN",
				Status:        models.AvailableItem,
			})
			require.NoError(t, err)
		}
	}
	seed("physics", 3)
	seed("chemistry", 2)
	seed("", 1) // items without a department stay off the board

	// one physics item sold through an accepted bid
	bid, err := store.PlaceBid(ctx, recyclerA, models.BidRequest{ItemID: 1, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	require.NoError(t, store.AcceptBid(ctx, bid.ID, testCoordinator, ""))

	standings, err := store.GetDepartmentLeaderboard(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, standings, 2)

	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "physics", standings[0].Department)
	assert.Equal(t, 3, standings[0].TotalItems)
	assert.Equal(t, 2, standings[0].AvailableItems)
	assert.Equal(t, 1, standings[0].SoldItems)
	assert.Equal(t, 3, standings[0].ItemsThisWeek)
	assert.Equal(t, 3, standings[0].ItemsThisMonth)

	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, "chemistry", standings[1].Department)
	assert.Equal(t, 2, standings[1].TotalItems)

	t.Run("offset shifts the ranks", func(t *testing.T) {
		tail, err := store.GetDepartmentLeaderboard(ctx, 20, 1)
		require.NoError(t, err)
		require.Len(t, tail, 1)
		assert.Equal(t, 2, tail[0].Rank)
		assert.Equal(t, "chemistry", tail[0].Department)
	})
}

func TestStatsComputedFromLedger(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	first := addItem(t, store, testCoordinator)
	second := addItem(t, store, testCoordinator)

	b1 := addBid(t, store, first.ID, recyclerA, "100.50")
	addBid(t, store, first.ID, recyclerB, "150")
	addBid(t, store, second.ID, recyclerA, "80")

	require.NoError(t, store.AcceptBid(ctx, b1.ID, testCoordinator, ""))

	recyclerStats, err := store.GetRecyclerStats(ctx, recyclerA)
	require.NoError(t, err)
	assert.Equal(t, 2, recyclerStats.TotalBids)
	assert.Equal(t, 1, recyclerStats.AcceptedBids)
	assert.Equal(t, 1, recyclerStats.PendingBids)
	assert.True(t, recyclerStats.TotalSpent.Equal(decimal.RequireFromString("100.50")))

	coordStats, err := store.GetCoordinatorStats(ctx, testCoordinator)
	require.NoError(t, err)
	assert.Equal(t, 2, coordStats.TotalItems)
	assert.Equal(t, 1, coordStats.SoldItems)
	assert.Equal(t, 1, coordStats.AvailableItems)
	assert.Equal(t, 1, coordStats.AcceptedBids)
	assert.Equal(t, 1, coordStats.RejectedBids)
	assert.Equal(t, 1, coordStats.PendingBids)
	assert.True(t, coordStats.TotalRevenue.Equal(decimal.RequireFromString("100.50")))
}

func findBid(t *testing.T, store *Memory, recyclerID, bidID int) models.RecyclerBid {
	t.Helper()
	bids, err := store.GetRecyclerBids(context.Background(), recyclerID, 50, 0)
	require.NoError(t, err)
	for _, bid := range bids {
		if bid.ID == bidID {
			return bid
		}
	}
	t.Fatalf("bid %d not found for recycler %d", bidID, recyclerID)
	return models.RecyclerBid{}
}
