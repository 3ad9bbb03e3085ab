package router

import (
	"net/http"

	"github.com/circuit-stream/ewaste-service/internal/handlers"
	"github.com/circuit-stream/ewaste-service/internal/session"
)

func InitRoutes(authHandler *handlers.AuthHandler, itemHandler *handlers.ItemHandler, bidHandler *handlers.BidHandler, sessions *session.Manager) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", handlers.PingHandler)
	mux.HandleFunc("GET /api/item/{tag}", itemHandler.GetItemByTag)
	mux.HandleFunc("GET /api/leaderboard/departments", itemHandler.GetDepartmentLeaderboard)

	mux.HandleFunc("POST /api/auth/recycler/signup", authHandler.SignupRecycler)
	mux.HandleFunc("POST /api/auth/coordinator/signup", authHandler.SignupCoordinator)
	mux.HandleFunc("POST /api/auth/recycler/login", authHandler.LoginRecycler)
	mux.HandleFunc("POST /api/auth/coordinator/login", authHandler.LoginCoordinator)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	mux.HandleFunc("GET /api/items/available", requirePrincipal(sessions, session.KindRecycler, itemHandler.GetAvailableItems))
	mux.HandleFunc("POST /api/bids", requirePrincipal(sessions, session.KindRecycler, bidHandler.PlaceBid))
	mux.HandleFunc("GET /api/bids/mine", requirePrincipal(sessions, session.KindRecycler, bidHandler.GetMyBids))
	mux.HandleFunc("GET /api/recycler/purchased", requirePrincipal(sessions, session.KindRecycler, bidHandler.GetPurchasedItems))
	mux.HandleFunc("GET /api/recycler/stats", requirePrincipal(sessions, session.KindRecycler, bidHandler.GetRecyclerStats))

	mux.HandleFunc("POST /api/items", requirePrincipal(sessions, session.KindCoordinator, itemHandler.CreateItem))
	mux.HandleFunc("GET /api/items", requirePrincipal(sessions, session.KindCoordinator, itemHandler.GetCoordinatorItems))
	mux.HandleFunc("GET /api/items/{itemId}/qr", requirePrincipal(sessions, session.KindCoordinator, itemHandler.GetQRCode))
	mux.HandleFunc("PUT /api/items/{itemId}/status", requirePrincipal(sessions, session.KindCoordinator, itemHandler.UpdateStatus))
	mux.HandleFunc("GET /api/coordinator/bids", requirePrincipal(sessions, session.KindCoordinator, bidHandler.GetCoordinatorBids))
	mux.HandleFunc("PUT /api/coordinator/bids/{bidId}/accept", requirePrincipal(sessions, session.KindCoordinator, bidHandler.AcceptBid))
	mux.HandleFunc("PUT /api/coordinator/bids/{bidId}/reject", requirePrincipal(sessions, session.KindCoordinator, bidHandler.RejectBid))
	mux.HandleFunc("GET /api/coordinator/stats", requirePrincipal(sessions, session.KindCoordinator, bidHandler.GetCoordinatorStats))

	return mux
}
