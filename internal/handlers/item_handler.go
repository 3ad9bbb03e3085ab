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

// ItemHandler handles HTTP requests for item registration and listing.
type ItemHandler struct {
	Service *services.ItemService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *services.ItemService, logger *log.Logger, timeout time.Duration) *ItemHandler {
	return &ItemHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateItem handles requests from coordinators to register an item.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var itemReq models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&itemReq); err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid request body")
		return
	}

	item, err := h.Service.CreateItem(ctx, p.ID, itemReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to create item")
		return
	}

	utils.SendJSON(w, http.StatusCreated, item)
}

// GetItemByTag handles unauthenticated lookups of an item by its public tag.
// This is the endpoint behind the URL encoded in the printed QR label.
func (h *ItemHandler) GetItemByTag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	item, err := h.Service.GetItemByTag(ctx, r.PathValue("tag"))
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve item")
		return
	}

	utils.SendJSON(w, http.StatusOK, item)
}

// GetDepartmentLeaderboard handles unauthenticated requests for the
// department ranking.
func (h *ItemHandler) GetDepartmentLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	standings, err := h.Service.GetDepartmentLeaderboard(ctx, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve leaderboard")
		return
	}

	if standings == nil {
		standings = []models.DepartmentStanding{}
	}
	utils.SendJSON(w, http.StatusOK, standings)
}

// GetAvailableItems handles requests from recyclers for items open to bids.
func (h *ItemHandler) GetAvailableItems(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	items, err := h.Service.GetAvailableItems(ctx, p.ID, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve available items")
		return
	}

	if items == nil {
		items = []models.Item{}
	}
	utils.SendJSON(w, http.StatusOK, items)
}

// GetCoordinatorItems handles requests for the coordinator's own items.
func (h *ItemHandler) GetCoordinatorItems(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	items, err := h.Service.GetCoordinatorItems(ctx, p.ID, r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to retrieve items")
		return
	}

	if items == nil {
		items = []models.Item{}
	}
	utils.SendJSON(w, http.StatusOK, items)
}

// GetQRCode streams the printable PNG label for an item.
func (h *ItemHandler) GetQRCode(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	itemID, err := strconv.Atoi(r.PathValue("itemId"))
	if err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid item id")
		return
	}

	png, err := h.Service.QRCode(ctx, itemID, p.ID)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to generate qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Println(err)
	}
}

// UpdateStatus handles lifecycle updates for sold items.
func (h *ItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, p session.Principal) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	itemID, err := strconv.Atoi(r.PathValue("itemId"))
	if err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid item id")
		return
	}

	var statusReq models.ItemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&statusReq); err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid request body")
		return
	}

	item, err := h.Service.UpdateStatus(ctx, itemID, p.ID, statusReq.Status)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to update item status")
		return
	}

	utils.SendJSON(w, http.StatusOK, item)
}
