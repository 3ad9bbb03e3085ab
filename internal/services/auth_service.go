package services

import (
	"context"
	"strings"

	"github.com/circuit-stream/ewaste-service/internal/models"
	"github.com/circuit-stream/ewaste-service/internal/repository"
	"github.com/circuit-stream/ewaste-service/internal/session"

	"golang.org/x/crypto/bcrypt"
)

// defaultMaxPendingBids is the quota assigned to newly registered recyclers.
const defaultMaxPendingBids = 5

// AuthService handles account registration and session issuance.
type AuthService struct {
	Repo     repository.AccountRepository
	Sessions *session.Manager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo repository.AccountRepository, sessions *session.Manager) *AuthService {
	return &AuthService{Repo: repo, Sessions: sessions}
}

// SignupRecycler registers a recycler account. The license number must be
// present in the static lookup table of valid licenses.
func (s *AuthService) SignupRecycler(ctx context.Context, signupReq models.RecyclerSignupRequest) (*models.Recycler, error) {
	if signupReq.CompanyName == "" || signupReq.Email == "" || signupReq.Password == "" || signupReq.LicenseNumber == "" {
		return nil, models.NewValidationError("companyName, email, password and licenseNumber are required")
	}
	if len(signupReq.Password) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	license := strings.TrimSpace(signupReq.LicenseNumber)
	licensed, err := s.Repo.LicenseExists(ctx, license)
	if err != nil {
		return nil, err
	}
	if !licensed {
		return nil, models.NewValidationError("invalid or expired license number, please contact the administrator")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(signupReq.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	recycler := models.Recycler{
		CompanyName:    signupReq.CompanyName,
		ContactPerson:  signupReq.ContactPerson,
		Email:          signupReq.Email,
		LicenseNumber:  license,
		MaxPendingBids: defaultMaxPendingBids,
		PasswordHash:   string(hash),
	}
	return s.Repo.CreateRecycler(ctx, recycler)
}

// SignupCoordinator registers a coordinator account. Unlike recyclers,
// coordinators are campus staff and need no license check.
func (s *AuthService) SignupCoordinator(ctx context.Context, signupReq models.CoordinatorSignupRequest) (*models.Coordinator, error) {
	if signupReq.Name == "" || signupReq.Email == "" || signupReq.Password == "" {
		return nil, models.NewValidationError("name, email and password are required")
	}
	if len(signupReq.Password) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(signupReq.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	coordinator := models.Coordinator{
		Name:         signupReq.Name,
		Email:        signupReq.Email,
		Department:   signupReq.Department,
		PasswordHash: string(hash),
		Active:       true,
	}
	return s.Repo.CreateCoordinator(ctx, coordinator)
}

// LoginRecycler verifies the credentials and issues a session token.
func (s *AuthService) LoginRecycler(ctx context.Context, loginReq models.LoginRequest) (string, error) {
	if loginReq.Email == "" || loginReq.Password == "" {
		return "", models.NewValidationError("email and password are required")
	}

	recycler, err := s.Repo.GetRecyclerByEmail(ctx, loginReq.Email)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(recycler.PasswordHash), []byte(loginReq.Password)); err != nil {
		return "", models.NewUnauthenticatedError("invalid email or password")
	}

	return s.Sessions.Create(ctx, session.KindRecycler, recycler.ID)
}

// LoginCoordinator verifies the credentials and issues a session token.
// Deactivated accounts cannot log in.
func (s *AuthService) LoginCoordinator(ctx context.Context, loginReq models.LoginRequest) (string, error) {
	if loginReq.Email == "" || loginReq.Password == "" {
		return "", models.NewValidationError("email and password are required")
	}

	coordinator, err := s.Repo.GetCoordinatorByEmail(ctx, loginReq.Email)
	if err != nil {
		return "", err
	}
	if !coordinator.Active {
		return "", models.NewUnauthenticatedError("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(coordinator.PasswordHash), []byte(loginReq.Password)); err != nil {
		return "", models.NewUnauthenticatedError("invalid email or password")
	}

	return s.Sessions.Create(ctx, session.KindCoordinator, coordinator.ID)
}

// Logout destroys the session for the token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Sessions.Destroy(ctx, token)
}
