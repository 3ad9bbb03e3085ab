package repository

import (
	"context"
	"errors"

	"github.com/circuit-stream/ewaste-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository wraps storage operations on recycler and coordinator
// accounts.
type AccountRepository interface {
	LicenseExists(ctx context.Context, licenseNumber string) (bool, error)
	CreateRecycler(ctx context.Context, recycler models.Recycler) (*models.Recycler, error)
	CreateCoordinator(ctx context.Context, coordinator models.Coordinator) (*models.Coordinator, error)
	GetRecyclerByEmail(ctx context.Context, email string) (*models.Recycler, error)
	GetCoordinatorByEmail(ctx context.Context, email string) (*models.Coordinator, error)
}

// PostgresAccountRepository is the AccountRepository implementation for the
// database.
type PostgresAccountRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// LicenseExists checks the static license lookup table.
func (r *PostgresAccountRepository) LicenseExists(ctx context.Context, licenseNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM valid_licenses WHERE license_number = $1)`
	err := r.DB.QueryRow(ctx, query, licenseNumber).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CreateRecycler inserts a new recycler account.
func (r *PostgresAccountRepository) CreateRecycler(ctx context.Context, recycler models.Recycler) (*models.Recycler, error) {
	insertQuery := `INSERT INTO recyclers (company_name, contact_person, email, license_number, max_pending_bids, password_hash)
	                VALUES ($1, $2, $3, $4, $5, $6)
	                RETURNING id, created_at`
	err := r.DB.QueryRow(
		ctx,
		insertQuery,
		recycler.CompanyName,
		recycler.ContactPerson,
		recycler.Email,
		recycler.LicenseNumber,
		recycler.MaxPendingBids,
		recycler.PasswordHash).Scan(&recycler.ID, &recycler.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.NewConflictError("recycler with this email or license number already exists")
		}
		return nil, err
	}
	return &recycler, nil
}

// CreateCoordinator inserts a new coordinator account.
func (r *PostgresAccountRepository) CreateCoordinator(ctx context.Context, coordinator models.Coordinator) (*models.Coordinator, error) {
	insertQuery := `INSERT INTO coordinators (name, email, department, password_hash, active)
	                VALUES ($1, $2, $3, $4, $5)
	                RETURNING id, created_at`
	err := r.DB.QueryRow(
		ctx,
		insertQuery,
		coordinator.Name,
		coordinator.Email,
		coordinator.Department,
		coordinator.PasswordHash,
		coordinator.Active).Scan(&coordinator.ID, &coordinator.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.NewConflictError("coordinator with this email already exists")
		}
		return nil, err
	}
	return &coordinator, nil
}

// GetRecyclerByEmail returns the recycler account, including the password
// hash for login verification.
func (r *PostgresAccountRepository) GetRecyclerByEmail(ctx context.Context, email string) (*models.Recycler, error) {
	var recycler models.Recycler
	query := `SELECT id, company_name, contact_person, email, license_number, max_pending_bids, password_hash, created_at
	          FROM recyclers WHERE email = $1`
	err := r.DB.QueryRow(ctx, query, email).Scan(
		&recycler.ID,
		&recycler.CompanyName,
		&recycler.ContactPerson,
		&recycler.Email,
		&recycler.LicenseNumber,
		&recycler.MaxPendingBids,
		&recycler.PasswordHash,
		&recycler.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewUnauthenticatedError("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	return &recycler, nil
}

// GetCoordinatorByEmail returns the coordinator account.
func (r *PostgresAccountRepository) GetCoordinatorByEmail(ctx context.Context, email string) (*models.Coordinator, error) {
	var coordinator models.Coordinator
	query := `SELECT id, name, email, department, password_hash, active, created_at
	          FROM coordinators WHERE email = $1`
	err := r.DB.QueryRow(ctx, query, email).Scan(
		&coordinator.ID,
		&coordinator.Name,
		&coordinator.Email,
		&coordinator.Department,
		&coordinator.PasswordHash,
		&coordinator.Active,
		&coordinator.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewUnauthenticatedError("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	return &coordinator, nil
}
