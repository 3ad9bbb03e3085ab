package models

import "time"

// Recycler represents a vendor account that bids on items. MaxPendingBids is
// the recycler's quota of simultaneously pending bids.
type Recycler struct {
	ID             int       `json:"id"`
	CompanyName    string    `json:"companyName"`
	ContactPerson  string    `json:"contactPerson"`
	Email          string    `json:"email"`
	LicenseNumber  string    `json:"licenseNumber"`
	MaxPendingBids int       `json:"maxPendingBids"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Coordinator represents the account that registers items and decides bids.
type Coordinator struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Department   string    `json:"department"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RecyclerSignupRequest represents the request body for recycler registration.
type RecyclerSignupRequest struct {
	CompanyName   string `json:"companyName"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	LicenseNumber string `json:"licenseNumber"`
}

// CoordinatorSignupRequest represents the request body for coordinator
// registration.
type CoordinatorSignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Password   string `json:"password"`
}

// LoginRequest represents the request body for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued on a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}
