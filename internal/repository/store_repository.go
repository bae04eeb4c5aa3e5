package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/model"
)

// StoreRepository handles store data operations
type StoreRepository struct {
	db *sqlx.DB
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(db *sqlx.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

const storeColumns = `id, name, address, city, zip, phone, email, image_url,
	created_by, updated_by, created_at, updated_at, deleted`

// Create persists a new store. Store names are unique.
func (r *StoreRepository) Create(ctx context.Context, s *model.Store) error {
	query := `
		INSERT INTO stores (id, name, address, city, zip, phone, email, image_url,
			created_by, updated_by, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Address, s.City, s.Zip, s.Phone, s.Email, s.ImageURL,
		s.CreatedBy, s.UpdatedBy, s.CreatedAt, s.UpdatedAt, s.Deleted)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return errs.New(errs.KindDuplicate, "store name already in use")
		}
		return fmt.Errorf("failed to create store: %w", err)
	}

	return nil
}

// GetByID retrieves a non-deleted store by ID
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*model.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1 AND deleted = FALSE`

	var store model.Store
	if err := r.db.GetContext(ctx, &store, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.KindNotFound, "store not found")
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	return &store, nil
}

// Exists reports whether a non-deleted store exists
func (r *StoreRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM stores WHERE id = $1 AND deleted = FALSE)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check store existence: %w", err)
	}

	return exists, nil
}

// Update overwrites the mutable store fields
func (r *StoreRepository) Update(ctx context.Context, s *model.Store) error {
	query := `
		UPDATE stores
		SET name = $2, address = $3, city = $4, zip = $5, phone = $6, email = $7,
			image_url = $8, updated_by = $9, updated_at = $10
		WHERE id = $1 AND deleted = FALSE
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Address, s.City, s.Zip, s.Phone, s.Email,
		s.ImageURL, s.UpdatedBy, s.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return errs.New(errs.KindDuplicate, "store name already in use")
		}
		return fmt.Errorf("failed to update store: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errs.New(errs.KindNotFound, "store not found")
	}

	return nil
}

// SoftDelete flags a store as deleted without removing the row
func (r *StoreRepository) SoftDelete(ctx context.Context, id, userID string, now time.Time) error {
	query := `
		UPDATE stores
		SET deleted = TRUE, updated_by = $2, updated_at = $3
		WHERE id = $1 AND deleted = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id, userID, now)
	if err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errs.New(errs.KindNotFound, "store not found")
	}

	return nil
}
