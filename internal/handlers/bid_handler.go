package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/circuit-stream/ewaste-service/internal/models"
	"github.com/circuit-stream/ewaste-service/internal/services"
	"github.com/circuit-stream/ewaste-service/internal/session"
	"github.com/circuit-stream/ewaste-service/internal/utils"
)

// BidHandler handles HTTP requests for placing, listing and deciding bids.
type BidHandler struct {
	Service *services.BidService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewBidHandler creates a new BidHandler.
func NewBidHandler(service *services.BidService, logger *log.Logger, timeout time.Duration) *BidHandler {
	return &BidHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// PlaceBid handles requests from recyclers to bid on an available item.
func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var bidReq models.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&bidReq); err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid request body")
		return
	}

	newBid, err := h.Service.PlaceBid(ctx, p.ID, bidReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to place bid")
		return
	}

	utils.SendJSON(w, http.StatusCreated, newBid)
}

// AcceptBid handles requests from coordinators to accept a pending bid.
func (h *BidHandler) AcceptBid(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	bidID, err := strconv.Atoi(r.PathValue("bidId"))
	if err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid bid id")
		return
	}

	var decision models.DecisionRequest
	if r.Body != nil {
		// the reason is optional, an empty body is fine
		_ = json.NewDecoder(r.Body).Decode(&decision)
	}

	if err := h.Service.AcceptBid(ctx, bidID, p.ID, decision.Reason); err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to accept bid")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "bid accepted successfully"})
}

// RejectBid handles requests from coordinators to reject a pending bid.
func (h *BidHandler) RejectBid(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	bidID, err := strconv.Atoi(r.PathValue("bidId"))
	if err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid bid id")
		return
	}

	var decision models.DecisionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&decision)
	}

	if err := h.Service.RejectBid(ctx, bidID, p.ID, decision.Reason); err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to reject bid")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "bid rejected successfully"})
}

// GetMyBids handles requests for the recycler's own bid history.
func (h *BidHandler) GetMyBids(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	bids, err := h.Service.GetRecyclerBids(ctx, p.ID, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve bids")
		return
	}

	if bids == nil {
		bids = []models.RecyclerBid{}
	}
	utils.SendJSON(w, http.StatusOK, bids)
}

// GetPurchasedItems handles requests for the recycler's accepted bids.
func (h *BidHandler) GetPurchasedItems(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	bids, err := h.Service.GetPurchasedItems(ctx, p.ID, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve purchased items")
		return
	}

	if bids == nil {
		bids = []models.RecyclerBid{}
	}
	utils.SendJSON(w, http.StatusOK, bids)
}

// GetCoordinatorBids handles requests for bids across the coordinator's items.
func (h *BidHandler) GetCoordinatorBids(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	bids, err := h.Service.GetCoordinatorBids(ctx, p.ID, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve bids")
		return
	}

	if bids == nil {
		bids = []models.CoordinatorBid{}
	}
	utils.SendJSON(w, http.StatusOK, bids)
}

// GetRecyclerStats handles requests for the recycler's aggregate counters.
func (h *BidHandler) GetRecyclerStats(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	stats, err := h.Service.GetRecyclerStats(ctx, p.ID)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve statistics")
		return
	}

	utils.SendJSON(w, http.StatusOK, stats)
}

// GetCoordinatorStats handles requests for the coordinator's dashboard
// counters.
func (h *BidHandler) GetCoordinatorStats(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	stats, err := h.Service.GetCoordinatorStats(ctx, p.ID)
	if err != nil {
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve statistics")
		return
	}

	utils.SendJSON(w, http.StatusOK, stats)
}
