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

const pqUniqueViolation = "23505"

// VoucherRepository handles voucher data operations
type VoucherRepository struct {
	db *sqlx.DB
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sqlx.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

const voucherColumns = `id, campaign_id, status, user_id, amount, claimed_at, consumed_at`

// Claim allocates one voucher of the campaign's inventory to the user.
//
// The campaign row is locked with SELECT ... FOR UPDATE, which serializes
// claims per campaign: the duplicate check, the derived count and the insert
// all see a consistent snapshot relative to concurrent claims. The UNIQUE
// (campaign_id, user_id) constraint backs the duplicate guard should the
// row lock ever be bypassed.
//
// Returns the created voucher and the campaign's claimed count including it.
func (r *VoucherRepository) Claim(ctx context.Context, campaignID, userID, voucherID string, now time.Time) (*model.Voucher, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the campaign row for the duration of the claim.
	var campaign struct {
		ID        string `db:"id"`
		Inventory int    `db:"inventory"`
		Amount    int64  `db:"amount"`
	}
	err = tx.GetContext(ctx, &campaign,
		`SELECT id, inventory, amount FROM campaigns WHERE id = $1 AND deleted = FALSE FOR UPDATE`,
		campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, errs.New(errs.KindNotFound, "campaign not found")
		}
		return nil, 0, fmt.Errorf("failed to lock campaign: %w", err)
	}

	// Duplicate-claim guard: one voucher per (campaign, user).
	var claimed bool
	err = tx.GetContext(ctx, &claimed,
		`SELECT EXISTS (SELECT 1 FROM vouchers WHERE campaign_id = $1 AND user_id = $2)`,
		campaignID, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check existing claim: %w", err)
	}
	if claimed {
		return nil, 0, errs.New(errs.KindAlreadyClaimed, "user already claimed this campaign")
	}

	// Over-allocation guard: the issued count is derived from the voucher
	// set, never kept as a separate counter.
	var issued int
	err = tx.GetContext(ctx, &issued,
		`SELECT COUNT(*) FROM vouchers WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count vouchers: %w", err)
	}
	if issued >= campaign.Inventory {
		return nil, 0, errs.New(errs.KindCapacityExceeded, "campaign inventory exhausted")
	}

	voucher := &model.Voucher{
		ID:         voucherID,
		CampaignID: campaignID,
		Status:     model.VoucherClaimed,
		UserID:     userID,
		Amount:     campaign.Amount,
		ClaimedAt:  now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO vouchers (id, campaign_id, status, user_id, amount, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		voucher.ID, voucher.CampaignID, voucher.Status, voucher.UserID, voucher.Amount, voucher.ClaimedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, 0, errs.New(errs.KindAlreadyClaimed, "user already claimed this campaign")
		}
		return nil, 0, fmt.Errorf("failed to insert voucher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return voucher, issued + 1, nil
}

// Consume transitions a voucher from CLAIMED to CONSUMED. Any other current
// state fails with an invalid-state error and leaves the row untouched.
func (r *VoucherRepository) Consume(ctx context.Context, voucherID string, now time.Time) (*model.Voucher, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var voucher model.Voucher
	err = tx.GetContext(ctx, &voucher,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = $1 FOR UPDATE`, voucherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.KindNotFound, "voucher not found")
		}
		return nil, fmt.Errorf("failed to lock voucher: %w", err)
	}

	if voucher.Status != model.VoucherClaimed {
		return nil, errs.Newf(errs.KindInvalidState, "voucher is %s, not CLAIMED", voucher.Status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE vouchers SET status = $2, consumed_at = $3 WHERE id = $1`,
		voucherID, model.VoucherConsumed, now)
	if err != nil {
		return nil, fmt.Errorf("failed to consume voucher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	voucher.Status = model.VoucherConsumed
	voucher.ConsumedAt = &now
	return &voucher, nil
}

// GetByID retrieves a voucher by ID
func (r *VoucherRepository) GetByID(ctx context.Context, voucherID string) (*model.Voucher, error) {
	var voucher model.Voucher
	err := r.db.GetContext(ctx, &voucher,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, voucherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.KindNotFound, "voucher not found")
		}
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	return &voucher, nil
}

// FindByCampaignAndUser retrieves the voucher a user holds for a campaign
func (r *VoucherRepository) FindByCampaignAndUser(ctx context.Context, campaignID, userID string) (*model.Voucher, error) {
	var voucher model.Voucher
	err := r.db.GetContext(ctx, &voucher,
		`SELECT `+voucherColumns+` FROM vouchers WHERE campaign_id = $1 AND user_id = $2`,
		campaignID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.KindNotFound, "voucher not found")
		}
		return nil, fmt.Errorf("failed to find voucher: %w", err)
	}

	return &voucher, nil
}

// ListByCampaign retrieves all vouchers issued for a campaign
func (r *VoucherRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.Voucher, error) {
	var vouchers []model.Voucher
	err := r.db.SelectContext(ctx, &vouchers,
		`SELECT `+voucherColumns+` FROM vouchers WHERE campaign_id = $1 ORDER BY claimed_at ASC`,
		campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers by campaign: %w", err)
	}

	return vouchers, nil
}

// ListByUser retrieves all vouchers claimed by a user
func (r *VoucherRepository) ListByUser(ctx context.Context, userID string) ([]model.Voucher, error) {
	var vouchers []model.Voucher
	err := r.db.SelectContext(ctx, &vouchers,
		`SELECT `+voucherColumns+` FROM vouchers WHERE user_id = $1 ORDER BY claimed_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers by user: %w", err)
	}

	return vouchers, nil
}

// CountByCampaign returns the number of vouchers issued for a campaign
func (r *VoucherRepository) CountByCampaign(ctx context.Context, campaignID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM vouchers WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to count vouchers: %w", err)
	}

	return count, nil
}
