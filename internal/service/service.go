// Package service holds the campaign lifecycle manager, the voucher
// allocator and the store service. Services depend on narrow store and
// collaborator interfaces so the lifecycle rules are testable without
// Postgres; the clock and ID generator are injectable for the same reason.
package service

import (
	"context"
	"time"

	"github.com/danswara/promo-service/internal/client"
	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/model"
)

// CampaignStore persists campaign records.
type CampaignStore interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	ExistsByDescription(ctx context.Context, description string) (bool, error)
	Update(ctx context.Context, c *model.Campaign) (bool, error)
	MarkPromoted(ctx context.Context, id, userID string, now time.Time) (bool, error)
	ListByStore(ctx context.Context, storeID string) ([]model.Campaign, error)
}

// VoucherStore persists voucher records. Claim evaluates the duplicate and
// capacity guards against a snapshot consistent with the insert.
type VoucherStore interface {
	Claim(ctx context.Context, campaignID, userID, voucherID string, now time.Time) (*model.Voucher, int, error)
	Consume(ctx context.Context, voucherID string, now time.Time) (*model.Voucher, error)
	GetByID(ctx context.Context, voucherID string) (*model.Voucher, error)
	FindByCampaignAndUser(ctx context.Context, campaignID, userID string) (*model.Voucher, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]model.Voucher, error)
	ListByUser(ctx context.Context, userID string) ([]model.Voucher, error)
	CountByCampaign(ctx context.Context, campaignID string) (int, error)
}

// StoreDirectory persists store records and answers existence lookups.
type StoreDirectory interface {
	Create(ctx context.Context, s *model.Store) error
	GetByID(ctx context.Context, id string) (*model.Store, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, s *model.Store) error
	SoftDelete(ctx context.Context, id, userID string, now time.Time) error
}

// UserValidator answers "is this user active and does it hold role R".
type UserValidator interface {
	ValidateActiveUser(ctx context.Context, userID, role string) (client.ValidationResult, error)
	UserEmail(ctx context.Context, userID string) (string, error)
}

// PromotionNotifier receives best-effort promotion notices.
type PromotionNotifier interface {
	NotifyPromotion(ctx context.Context, notice client.PromotionNotice) error
}

// requireActive short-circuits with an unauthorized error unless the user is
// active and holds the role. Validator transport failures propagate as
// dependency errors; either way the mutation is blocked.
func requireActive(ctx context.Context, validator UserValidator, userID, role string) error {
	result, err := validator.ValidateActiveUser(ctx, userID, role)
	if err != nil {
		return err
	}
	if !result.Active || result.Role != role {
		message := result.Message
		if message == "" {
			message = "user is not an active " + role
		}
		return errs.New(errs.KindUnauthorized, message)
	}
	return nil
}
