package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/circuit-stream/ewaste-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// BidRepository wraps all storage operations on bids, including the
// transactional accept/reject decisions.
type BidRepository interface {
	PlaceBid(ctx context.Context, recyclerID int, bidReq models.BidRequest) (*models.Bid, error)
	AcceptBid(ctx context.Context, bidID, coordinatorID int, reason string) error
	RejectBid(ctx context.Context, bidID, coordinatorID int, reason string) error
	GetRecyclerBids(ctx context.Context, recyclerID, limit, offset int) ([]models.RecyclerBid, error)
	GetPurchasedItems(ctx context.Context, recyclerID, limit, offset int) ([]models.RecyclerBid, error)
	GetCoordinatorBids(ctx context.Context, coordinatorID, limit, offset int) ([]models.CoordinatorBid, error)
	GetRecyclerStats(ctx context.Context, recyclerID int) (*models.RecyclerStats, error)
	GetCoordinatorStats(ctx context.Context, coordinatorID int) (*models.CoordinatorStats, error)
}

// PostgresBidRepository is the BidRepository implementation for the database.
type PostgresBidRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresBidRepository creates a new PostgresBidRepository.
func NewPostgresBidRepository(db *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{DB: db}
}

// PlaceBid inserts a pending bid. The availability, duplicate and quota
// checks run in the same transaction as the insert, with the recycler and
// item rows locked, so two simultaneous placements cannot both slip past the
// quota check.
func (r *PostgresBidRepository) PlaceBid(ctx context.Context, recyclerID int, bidReq models.BidRequest) (*models.Bid, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var maxPending int
	quotaQuery := `SELECT max_pending_bids FROM recyclers WHERE id = $1 FOR UPDATE`
	err = tx.QueryRow(ctx, quotaQuery, recyclerID).Scan(&maxPending)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewUnauthenticatedError("recycler does not exist")
	}
	if err != nil {
		return nil, err
	}

	var itemStatus models.ItemStatus
	itemQuery := `SELECT status FROM items WHERE id = $1 FOR UPDATE`
	err = tx.QueryRow(ctx, itemQuery, bidReq.ItemID).Scan(&itemStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("item not found")
	}
	if err != nil {
		return nil, err
	}
	if itemStatus != models.AvailableItem {
		return nil, models.NewConflictError("item is not available for bidding")
	}

	var pendingCount int
	countQuery := `SELECT COUNT(*) FROM bids WHERE recycler_id = $1 AND status = $2`
	if err = tx.QueryRow(ctx, countQuery, recyclerID, models.PendingBid).Scan(&pendingCount); err != nil {
		return nil, err
	}
	if pendingCount >= maxPending {
		return nil, models.NewQuotaExceededError(fmt.Sprintf("you have reached your bidding limit of %d pending bids", maxPending))
	}

	newBid := models.Bid{
		ItemID:     bidReq.ItemID,
		RecyclerID: recyclerID,
		Amount:     bidReq.Amount,
		Note:       bidReq.Note,
		Status:     models.PendingBid,
	}
	insertQuery := `INSERT INTO bids (item_id, recycler_id, amount, note, status)
	                VALUES ($1, $2, $3, $4, $5)
	                RETURNING id, created_at, updated_at`
	err = tx.QueryRow(
		ctx,
		insertQuery,
		newBid.ItemID,
		newBid.RecyclerID,
		newBid.Amount,
		newBid.Note,
		newBid.Status).Scan(&newBid.ID, &newBid.CreatedAt, &newBid.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.NewConflictError("you have already placed a bid on this item")
		}
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("can't commit tx: %w", err)
	}
	return &newBid, nil
}

// AcceptBid accepts the bid, marks the item sold and rejects every other
// pending bid on that item, all inside one transaction. The bid and item rows
// are locked and their statuses re-checked before any write, so a concurrent
// accept on a competing bid observes a non-pending status and fails with a
// conflict instead of producing a second winner.
func (r *PostgresBidRepository) AcceptBid(ctx context.Context, bidID, coordinatorID int, reason string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("can't begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	bid, err := lockBid(ctx, tx, bidID, coordinatorID)
	if err != nil {
		return err
	}
	if bid.status != models.PendingBid {
		return models.NewConflictError("bid has already been processed")
	}

	acceptQuery := `UPDATE bids SET status = $1, decision_reason = $2, updated_at = now()
	                WHERE id = $3 AND status = $4`
	ct, err := tx.Exec(ctx, acceptQuery, models.AcceptedBid, reason, bidID, models.PendingBid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return models.NewConflictError("bid has already been processed")
	}

	sellQuery := `UPDATE items SET status = $1, updated_at = now()
	              WHERE id = $2 AND status = $3`
	ct, err = tx.Exec(ctx, sellQuery, models.SoldItem, bid.itemID, models.AvailableItem)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return models.NewConflictError("item is no longer available")
	}

	cascadeQuery := `UPDATE bids SET status = $1, decision_reason = $2, updated_at = now()
	                 WHERE item_id = $3 AND id <> $4 AND status = $5`
	_, err = tx.Exec(ctx, cascadeQuery, models.RejectedBid, models.RejectedBySystemReason, bid.itemID, bidID, models.PendingBid)
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("can't commit tx: %w", err)
	}
	return nil
}

// RejectBid rejects a single pending bid. No cascade and no item mutation.
func (r *PostgresBidRepository) RejectBid(ctx context.Context, bidID, coordinatorID int, reason string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("can't begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	bid, err := lockBid(ctx, tx, bidID, coordinatorID)
	if err != nil {
		return err
	}
	if bid.status != models.PendingBid {
		return models.NewConflictError("bid has already been processed")
	}

	rejectQuery := `UPDATE bids SET status = $1, decision_reason = $2, updated_at = now()
	                WHERE id = $3 AND status = $4`
	ct, err := tx.Exec(ctx, rejectQuery, models.RejectedBid, reason, bidID, models.PendingBid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return models.NewConflictError("bid has already been processed")
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("can't commit tx: %w", err)
	}
	return nil
}

type lockedBid struct {
	itemID int
	status models.BidStatus
}

// lockBid locks the bid and its item rows for the duration of the transaction
// and verifies the item belongs to the coordinator. A bid on another
// coordinator's item is reported as not found, same as a missing bid.
func lockBid(ctx context.Context, tx pgx.Tx, bidID, coordinatorID int) (*lockedBid, error) {
	var bid lockedBid
	var ownerID int
	query := `SELECT b.item_id, b.status, i.coordinator_id
	          FROM bids b
	          JOIN items i ON b.item_id = i.id
	          WHERE b.id = $1
	          FOR UPDATE OF b, i`
	err := tx.QueryRow(ctx, query, bidID).Scan(&bid.itemID, &bid.status, &ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("bid not found or already processed")
	}
	if err != nil {
		return nil, err
	}
	if ownerID != coordinatorID {
		return nil, models.NewNotFoundError("bid not found or already processed")
	}
	return &bid, nil
}

// GetRecyclerBids returns the recycler's bids with item details.
func (r *PostgresBidRepository) GetRecyclerBids(ctx context.Context, recyclerID, limit, offset int) ([]models.RecyclerBid, error) {
	query := `
		SELECT b.id, b.item_id, b.recycler_id, b.amount, b.note, b.status, b.decision_reason, b.created_at, b.updated_at,
		       i.tag, i.category, i.serial_no, i.status
		FROM bids b
		JOIN items i ON b.item_id = i.id
		WHERE b.recycler_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, recyclerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecyclerBids(rows)
}

// GetPurchasedItems returns the recycler's accepted bids with item details.
func (r *PostgresBidRepository) GetPurchasedItems(ctx context.Context, recyclerID, limit, offset int) ([]models.RecyclerBid, error) {
	query := `
		SELECT b.id, b.item_id, b.recycler_id, b.amount, b.note, b.status, b.decision_reason, b.created_at, b.updated_at,
		       i.tag, i.category, i.serial_no, i.status
		FROM bids b
		JOIN items i ON b.item_id = i.id
		WHERE b.recycler_id = $1 AND b.status = $2
		ORDER BY b.updated_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.DB.Query(ctx, query, recyclerID, models.AcceptedBid, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecyclerBids(rows)
}

func scanRecyclerBids(rows pgx.Rows) ([]models.RecyclerBid, error) {
	var bids []models.RecyclerBid
	for rows.Next() {
		var bid models.RecyclerBid
		if err := rows.Scan(
			&bid.ID,
			&bid.ItemID,
			&bid.RecyclerID,
			&bid.Amount,
			&bid.Note,
			&bid.Status,
			&bid.DecisionReason,
			&bid.CreatedAt,
			&bid.UpdatedAt,
			&bid.ItemTag,
			&bid.ItemCategory,
			&bid.ItemSerialNo,
			&bid.ItemStatus); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

// GetCoordinatorBids returns all bids on the coordinator's items.
func (r *PostgresBidRepository) GetCoordinatorBids(ctx context.Context, coordinatorID, limit, offset int) ([]models.CoordinatorBid, error) {
	query := `
		SELECT b.id, b.item_id, b.recycler_id, b.amount, b.note, b.status, b.decision_reason, b.created_at, b.updated_at,
		       i.tag, i.category, r.company_name, r.contact_person
		FROM bids b
		JOIN items i ON b.item_id = i.id
		JOIN recyclers r ON b.recycler_id = r.id
		WHERE i.coordinator_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, coordinatorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.CoordinatorBid
	for rows.Next() {
		var bid models.CoordinatorBid
		if err := rows.Scan(
			&bid.ID,
			&bid.ItemID,
			&bid.RecyclerID,
			&bid.Amount,
			&bid.Note,
			&bid.Status,
			&bid.DecisionReason,
			&bid.CreatedAt,
			&bid.UpdatedAt,
			&bid.ItemTag,
			&bid.ItemCategory,
			&bid.RecyclerCompany,
			&bid.RecyclerContact); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

// GetRecyclerStats computes the recycler's aggregate bid counts straight from
// the bids table.
func (r *PostgresBidRepository) GetRecyclerStats(ctx context.Context, recyclerID int) (*models.RecyclerStats, error) {
	var stats models.RecyclerStats
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'accepted'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'accepted'), 0)
		FROM bids
		WHERE recycler_id = $1`
	err := r.DB.QueryRow(ctx, query, recyclerID).Scan(
		&stats.TotalBids,
		&stats.PendingBids,
		&stats.AcceptedBids,
		&stats.TotalSpent,
	)
	if err != nil {
		return nil, err
	}
	stats.PurchasedItems = stats.AcceptedBids
	return &stats, nil
}

// GetCoordinatorStats computes item and bid aggregates for the coordinator's
// dashboard from the items and bids tables directly.
func (r *PostgresBidRepository) GetCoordinatorStats(ctx context.Context, coordinatorID int) (*models.CoordinatorStats, error) {
	var stats models.CoordinatorStats
	itemsQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'available'),
		       COUNT(*) FILTER (WHERE status = 'sold')
		FROM items
		WHERE coordinator_id = $1`
	err := r.DB.QueryRow(ctx, itemsQuery, coordinatorID).Scan(
		&stats.TotalItems,
		&stats.AvailableItems,
		&stats.SoldItems,
	)
	if err != nil {
		return nil, err
	}

	bidsQuery := `
		SELECT COUNT(*) FILTER (WHERE b.status = 'pending'),
		       COUNT(*) FILTER (WHERE b.status = 'accepted'),
		       COUNT(*) FILTER (WHERE b.status = 'rejected'),
		       COALESCE(SUM(b.amount) FILTER (WHERE b.status = 'accepted'), 0)
		FROM bids b
		JOIN items i ON b.item_id = i.id
		WHERE i.coordinator_id = $1`
	err = r.DB.QueryRow(ctx, bidsQuery, coordinatorID).Scan(
		&stats.PendingBids,
		&stats.AcceptedBids,
		&stats.RejectedBids,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
