package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/circuit-stream/ewaste-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ItemRepository wraps storage operations on registered items.
type ItemRepository interface {
	CreateItem(ctx context.Context, item models.Item) (*models.Item, error)
	GetItem(ctx context.Context, itemID int) (*models.Item, error)
	GetItemByTag(ctx context.Context, tag string) (*models.Item, error)
	GetAvailableItems(ctx context.Context, recyclerID, limit, offset int) ([]models.Item, error)
	GetCoordinatorItems(ctx context.Context, coordinatorID, limit, offset int) ([]models.Item, error)
	GetDepartmentLeaderboard(ctx context.Context, limit, offset int) ([]models.DepartmentStanding, error)
	UpdateItemStatus(ctx context.Context, itemID int, from, to models.ItemStatus) (*models.Item, error)
}

// PostgresItemRepository is the ItemRepository implementation for the database.
type PostgresItemRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresItemRepository creates a new PostgresItemRepository.
func NewPostgresItemRepository(db *pgxpool.Pool) *PostgresItemRepository {
	return &PostgresItemRepository{DB: db}
}

const itemColumns = `id, tag, coordinator_id, category, department, serial_no, item_url, status, created_at, updated_at`

// CreateItem inserts a new item with status available.
func (r *PostgresItemRepository) CreateItem(ctx context.Context, item models.Item) (*models.Item, error) {
	insertQuery := `INSERT INTO items (tag, coordinator_id, category, department, serial_no, item_url, status)
	                VALUES ($1, $2, $3, $4, $5, $6, $7)
	                RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(
		ctx,
		insertQuery,
		item.Tag,
		item.CoordinatorID,
		item.Category,
		item.Department,
		item.SerialNo,
		item.ItemURL,
		item.Status).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItem returns the item by ID.
func (r *PostgresItemRepository) GetItem(ctx context.Context, itemID int) (*models.Item, error) {
	var item models.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, itemID).Scan(
		&item.ID,
		&item.Tag,
		&item.CoordinatorID,
		&item.Category,
		&item.Department,
		&item.SerialNo,
		&item.ItemURL,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("item not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByTag returns the item by its public tag. This is the lookup behind
// a scanned QR label.
func (r *PostgresItemRepository) GetItemByTag(ctx context.Context, tag string) (*models.Item, error) {
	var item models.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE tag = $1`
	err := r.DB.QueryRow(ctx, query, tag).Scan(
		&item.ID,
		&item.Tag,
		&item.CoordinatorID,
		&item.Category,
		&item.Department,
		&item.SerialNo,
		&item.ItemURL,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("item not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetAvailableItems returns available items the recycler has not yet bid on.
func (r *PostgresItemRepository) GetAvailableItems(ctx context.Context, recyclerID, limit, offset int) ([]models.Item, error) {
	query := `
		SELECT i.id, i.tag, i.coordinator_id, i.category, i.department, i.serial_no, i.item_url, i.status, i.created_at, i.updated_at
		FROM items i
		LEFT JOIN bids b ON i.id = b.item_id AND b.recycler_id = $1
		WHERE i.status = $2 AND b.id IS NULL
		ORDER BY i.created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.DB.Query(ctx, query, recyclerID, models.AvailableItem, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetCoordinatorItems returns the coordinator's own items.
func (r *PostgresItemRepository) GetCoordinatorItems(ctx context.Context, coordinatorID, limit, offset int) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE coordinator_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, coordinatorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]models.Item, error) {
	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID,
			&item.Tag,
			&item.CoordinatorID,
			&item.Category,
			&item.Department,
			&item.SerialNo,
			&item.ItemURL,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetDepartmentLeaderboard ranks departments by registered and sold items,
// with recent-activity counts per row. Items without a department are left
// out of the ranking.
func (r *PostgresItemRepository) GetDepartmentLeaderboard(ctx context.Context, limit, offset int) ([]models.DepartmentStanding, error) {
	query := `
		SELECT department,
		       COUNT(*) AS total_items,
		       COUNT(*) FILTER (WHERE status = $1) AS available_items,
		       COUNT(*) FILTER (WHERE status = $2) AS sold_items,
		       COUNT(*) FILTER (WHERE created_at >= now() - interval '7 days') AS items_this_week,
		       COUNT(*) FILTER (WHERE created_at >= now() - interval '30 days') AS items_this_month
		FROM items
		WHERE department <> ''
		GROUP BY department
		ORDER BY total_items DESC, sold_items DESC, department
		LIMIT $3 OFFSET $4`
	rows, err := r.DB.Query(ctx, query, models.AvailableItem, models.SoldItem, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []models.DepartmentStanding
	for rows.Next() {
		var s models.DepartmentStanding
		if err := rows.Scan(
			&s.Department,
			&s.TotalItems,
			&s.AvailableItems,
			&s.SoldItems,
			&s.ItemsThisWeek,
			&s.ItemsThisMonth); err != nil {
			return nil, err
		}
		s.Rank = offset + len(standings) + 1
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

// UpdateItemStatus applies a single status transition, guarded by the
// expected prior state. If the item has moved on since the caller read it,
// no row matches and the update fails with a conflict instead of silently
// overwriting the newer state.
func (r *PostgresItemRepository) UpdateItemStatus(ctx context.Context, itemID int, from, to models.ItemStatus) (*models.Item, error) {
	if !from.CanTransitionTo(to) {
		return nil, models.NewConflictError(fmt.Sprintf("cannot move item from %s to %s", from, to))
	}

	var item models.Item
	updateQuery := `UPDATE items SET status = $1, updated_at = now()
	                WHERE id = $2 AND status = $3
	                RETURNING ` + itemColumns
	err := r.DB.QueryRow(ctx, updateQuery, to, itemID, from).Scan(
		&item.ID,
		&item.Tag,
		&item.CoordinatorID,
		&item.Category,
		&item.Department,
		&item.SerialNo,
		&item.ItemURL,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewConflictError("item status has changed, please refresh and retry")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
