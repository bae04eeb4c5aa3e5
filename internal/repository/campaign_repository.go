package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/model"
)

// CampaignRepository handles campaign data operations
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, description, store_id, status, tags, inventory, likes, pin, terms,
	amount, start_date, end_date, category, created_by, updated_by, created_at, updated_at, deleted`

// Create persists a new campaign
func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	query := `
		INSERT INTO campaigns (id, description, store_id, status, tags, inventory, likes, pin,
			terms, amount, start_date, end_date, category, created_by, updated_by, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Description, c.StoreID, c.Status, c.Tags, c.Inventory, c.Likes, c.PIN,
		c.Terms, c.Amount, c.StartDate, c.EndDate, c.Category, c.CreatedBy, c.UpdatedBy,
		c.CreatedAt, c.UpdatedAt, c.Deleted)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a non-deleted campaign by ID
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 AND deleted = FALSE`

	var c model.Campaign
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.KindNotFound, "campaign not found")
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &c, nil
}

// ExistsByDescription reports whether a non-deleted campaign with the
// description already exists.
func (r *CampaignRepository) ExistsByDescription(ctx context.Context, description string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM campaigns WHERE description = $1 AND deleted = FALSE)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, description); err != nil {
		return false, fmt.Errorf("failed to check campaign description: %w", err)
	}

	return exists, nil
}

// Update overwrites the mutable campaign fields. The write is conditioned on
// status = CREATED so a concurrent promote or sweep cannot be overwritten;
// it returns false when no row matched.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) (bool, error) {
	query := `
		UPDATE campaigns
		SET description = $2, amount = $3, start_date = $4, end_date = $5, likes = $6,
			inventory = $7, tags = $8, terms = $9, category = $10, updated_by = $11, updated_at = $12
		WHERE id = $1 AND status = 'CREATED' AND deleted = FALSE
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ID, c.Description, c.Amount, c.StartDate, c.EndDate, c.Likes,
		c.Inventory, c.Tags, c.Terms, c.Category, c.UpdatedBy, c.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// MarkPromoted transitions a campaign from CREATED to PROMOTED. The status
// condition makes the transition a compare-and-swap: it returns false when
// the campaign is missing or no longer in CREATED state.
func (r *CampaignRepository) MarkPromoted(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	query := `
		UPDATE campaigns
		SET status = 'PROMOTED', updated_by = $2, updated_at = $3
		WHERE id = $1 AND status = 'CREATED' AND deleted = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id, userID, now)
	if err != nil {
		return false, fmt.Errorf("failed to promote campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListByStore retrieves all non-deleted campaigns owned by a store
func (r *CampaignRepository) ListByStore(ctx context.Context, storeID string) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE store_id = $1 AND deleted = FALSE
		ORDER BY created_at DESC`

	var campaigns []model.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, storeID); err != nil {
		return nil, fmt.Errorf("failed to list campaigns by store: %w", err)
	}

	return campaigns, nil
}

// ListLapsed retrieves campaigns whose end date has passed and that are not
// yet expired.
func (r *CampaignRepository) ListLapsed(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE end_date IS NOT NULL AND end_date < $1 AND status <> 'EXPIRED'`

	var campaigns []model.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, now); err != nil {
		return nil, fmt.Errorf("failed to list lapsed campaigns: %w", err)
	}

	return campaigns, nil
}

// ExpireLapsed bulk-expires every campaign whose end date has passed,
// regardless of prior status. Re-running is a no-op for already-expired rows.
func (r *CampaignRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE campaigns
		SET status = 'EXPIRED', updated_at = $1
		WHERE end_date IS NOT NULL AND end_date < $1 AND status <> 'EXPIRED'
	`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire lapsed campaigns: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
