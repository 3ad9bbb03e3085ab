package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/circuit-stream/ewaste-service/internal/models"
	"github.com/circuit-stream/ewaste-service/internal/repository"
	"github.com/circuit-stream/ewaste-service/internal/services"
	"github.com/circuit-stream/ewaste-service/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	recyclerPrincipal    = session.Principal{Kind: session.KindRecycler, ID: 1}
	coordinatorPrincipal = session.Principal{Kind: session.KindCoordinator, ID: 7}
)

func newBidHandlerFixture(t *testing.T) (*BidHandler, *repository.Memory) {
	t.Helper()
	store := repository.NewMemory()
	store.RegisterRecycler(1, 5)
	store.RegisterRecycler(2, 5)
	logger := log.New(io.Discard, "", 0)
	return NewBidHandler(services.NewBidService(store), logger, time.Second), store
}

func seedItemAndBid(t *testing.T, store *repository.Memory) (*models.Item, *models.Bid) {
	t.Helper()
	item, err := store.CreateItem(context.Background(), models.Item{
		Tag:           "tag",
		CoordinatorID: 7,
		Category:      "laptop",
		SerialNo:      "SN-1",
		Status:        models.AvailableItem,
	})
	require.NoError(t, err)
	bid, err := store.PlaceBid(context.Background(), 1, models.BidRequest{
		ItemID: item.ID,
		Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	return item, bid
}

func TestBidHandlerPlaceBid(t *testing.T) {
	t.Run("creates a bid", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		item, err := store.CreateItem(context.Background(), models.Item{
			Tag:           "tag",
			CoordinatorID: 7,
			Category:      "laptop",
			SerialNo:      "SN-1",
			Status:        models.AvailableItem,
		})
		require.NoError(t, err)

		body := `{"itemId": ` + strconv.Itoa(item.ID) + `, "amount": "75.00", "note": "free pickup"}`
		r := httptest.NewRequest(http.MethodPost, "/api/bids", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.PlaceBid(w, r, recyclerPrincipal)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"pending"`)
		assert.Contains(t, w.Body.String(), `"note":"free pickup"`)
	})

	t.Run("malformed body", func(t *testing.T) {
		handler, _ := newBidHandlerFixture(t)
		r := httptest.NewRequest(http.MethodPost, "/api/bids", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		handler.PlaceBid(w, r, recyclerPrincipal)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate bid maps to 409", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		item, _ := seedItemAndBid(t, store)

		body := `{"itemId": ` + strconv.Itoa(item.ID) + `, "amount": "80"}`
		r := httptest.NewRequest(http.MethodPost, "/api/bids", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.PlaceBid(w, r, recyclerPrincipal)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"kind":"conflict","reason":"you have already placed a bid on this item"}`, w.Body.String())
	})

	t.Run("quota maps to 429", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		store.RegisterRecycler(1, 1)
		_, _ = seedItemAndBid(t, store)
		other, err := store.CreateItem(context.Background(), models.Item{
			Tag:           "tag-2",
			CoordinatorID: 7,
			Category:      "monitor",
			SerialNo:      "SN-2",
			Status:        models.AvailableItem,
		})
		require.NoError(t, err)

		body := `{"itemId": ` + strconv.Itoa(other.ID) + `, "amount": "80"}`
		r := httptest.NewRequest(http.MethodPost, "/api/bids", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.PlaceBid(w, r, recyclerPrincipal)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"quota_exceeded"`)
	})
}

func TestBidHandlerAcceptBid(t *testing.T) {
	t.Run("accepts and reports success", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		_, bid := seedItemAndBid(t, store)

		r := httptest.NewRequest(http.MethodPut, "/api/coordinator/bids/1/accept", strings.NewReader(`{"reason": "best offer"}`))
		r.SetPathValue("bidId", strconv.Itoa(bid.ID))
		w := httptest.NewRecorder()
		handler.AcceptBid(w, r, coordinatorPrincipal)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"bid accepted successfully"}`, w.Body.String())
	})

	t.Run("empty body uses the default reason", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		_, bid := seedItemAndBid(t, store)

		r := httptest.NewRequest(http.MethodPut, "/api/coordinator/bids/1/accept", nil)
		r.SetPathValue("bidId", strconv.Itoa(bid.ID))
		w := httptest.NewRecorder()
		handler.AcceptBid(w, r, coordinatorPrincipal)

		require.Equal(t, http.StatusOK, w.Code)

		bids, err := store.GetRecyclerBids(context.Background(), 1, 10, 0)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		assert.Equal(t, "bid accepted by coordinator", bids[0].DecisionReason)
	})

	t.Run("non-numeric bid id", func(t *testing.T) {
		handler, _ := newBidHandlerFixture(t)

		r := httptest.NewRequest(http.MethodPut, "/api/coordinator/bids/abc/accept", nil)
		r.SetPathValue("bidId", "abc")
		w := httptest.NewRecorder()
		handler.AcceptBid(w, r, coordinatorPrincipal)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("foreign coordinator gets 404", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		_, bid := seedItemAndBid(t, store)

		r := httptest.NewRequest(http.MethodPut, "/api/coordinator/bids/1/accept", nil)
		r.SetPathValue("bidId", strconv.Itoa(bid.ID))
		w := httptest.NewRecorder()
		handler.AcceptBid(w, r, session.Principal{Kind: session.KindCoordinator, ID: 99})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"kind":"not_found","reason":"bid not found or already processed"}`, w.Body.String())
	})

	t.Run("second accept maps to 409", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		_, bid := seedItemAndBid(t, store)

		accept := func() *httptest.ResponseRecorder {
			r := httptest.NewRequest(http.MethodPut, "/api/coordinator/bids/1/accept", nil)
			r.SetPathValue("bidId", strconv.Itoa(bid.ID))
			w := httptest.NewRecorder()
			handler.AcceptBid(w, r, coordinatorPrincipal)
			return w
		}

		require.Equal(t, http.StatusOK, accept().Code)
		assert.Equal(t, http.StatusConflict, accept().Code)
	})
}

func TestBidHandlerRejectBid(t *testing.T) {
	handler, store := newBidHandlerFixture(t)
	_, bid := seedItemAndBid(t, store)

	r := httptest.NewRequest(http.MethodPut, "/api/coordinator/bids/1/reject", strings.NewReader(`{"reason": "too low"}`))
	r.SetPathValue("bidId", strconv.Itoa(bid.ID))
	w := httptest.NewRecorder()
	handler.RejectBid(w, r, coordinatorPrincipal)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"bid rejected successfully"}`, w.Body.String())

	bids, err := store.GetRecyclerBids(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, models.RejectedBid, bids[0].Status)
	assert.Equal(t, "too low", bids[0].DecisionReason)
}

func TestBidHandlerListings(t *testing.T) {
	t.Run("empty history is an empty array, not null", func(t *testing.T) {
		handler, _ := newBidHandlerFixture(t)

		r := httptest.NewRequest(http.MethodGet, "/api/bids/mine", nil)
		w := httptest.NewRecorder()
		handler.GetMyBids(w, r, recyclerPrincipal)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]\n", w.Body.String())
	})

	t.Run("bad limit maps to 400", func(t *testing.T) {
		handler, _ := newBidHandlerFixture(t)

		r := httptest.NewRequest(http.MethodGet, "/api/bids/mine?limit=0", nil)
		w := httptest.NewRecorder()
		handler.GetMyBids(w, r, recyclerPrincipal)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("coordinator bid listing includes item details", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		item, _ := seedItemAndBid(t, store)

		r := httptest.NewRequest(http.MethodGet, "/api/coordinator/bids", nil)
		w := httptest.NewRecorder()
		handler.GetCoordinatorBids(w, r, coordinatorPrincipal)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"itemTag":"`+item.Tag+`"`)
	})

	t.Run("recycler stats", func(t *testing.T) {
		handler, store := newBidHandlerFixture(t)
		_, bid := seedItemAndBid(t, store)
		require.NoError(t, store.AcceptBid(context.Background(), bid.ID, 7, ""))

		r := httptest.NewRequest(http.MethodGet, "/api/recycler/stats", nil)
		w := httptest.NewRecorder()
		handler.GetRecyclerStats(w, r, recyclerPrincipal)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"totalBids":1`)
		assert.Contains(t, w.Body.String(), `"acceptedBids":1`)
	})
}
