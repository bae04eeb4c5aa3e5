package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danswara/promo-service/internal/metrics"
	"github.com/danswara/promo-service/internal/model"
)

// VoucherService owns voucher claim and consume transitions. It enforces
// per-user-per-campaign uniqueness and campaign capacity through the voucher
// store's transactional claim.
type VoucherService struct {
	vouchers  VoucherStore
	validator UserValidator
	clock     func() time.Time
	newID     func() string
}

// NewVoucherService creates a voucher service with default clock and ID
// generator.
func NewVoucherService(vouchers VoucherStore, validator UserValidator) *VoucherService {
	return &VoucherService{
		vouchers:  vouchers,
		validator: validator,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// Claim allocates one voucher of the campaign's inventory to the user.
// Guards run in order: customer authorization, campaign existence, duplicate
// claim, capacity; the latter three are evaluated inside the store's claim
// transaction. Returns the voucher and the campaign's claimed count.
func (s *VoucherService) Claim(ctx context.Context, campaignID, userID string) (*model.Voucher, int, error) {
	start := s.clock()
	result := "failed"
	defer func() {
		metrics.RecordClaimDuration(result, time.Since(start).Seconds())
	}()

	if err := requireActive(ctx, s.validator, userID, model.RoleCustomer); err != nil {
		return nil, 0, err
	}

	voucher, issued, err := s.vouchers.Claim(ctx, campaignID, userID, s.newID(), s.clock())
	if err != nil {
		return nil, 0, err
	}
	result = "success"

	logrus.WithFields(logrus.Fields{
		"voucher_id":  voucher.ID,
		"campaign_id": campaignID,
		"user_id":     userID,
		"issued":      issued,
	}).Info("voucher claimed")

	return voucher, issued, nil
}

// Consume redeems a claimed voucher. Consuming anything but a CLAIMED
// voucher fails and leaves the record unchanged.
func (s *VoucherService) Consume(ctx context.Context, voucherID string) (*model.Voucher, error) {
	voucher, err := s.vouchers.Consume(ctx, voucherID, s.clock())
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"voucher_id":  voucher.ID,
		"campaign_id": voucher.CampaignID,
	}).Info("voucher consumed")

	return voucher, nil
}

// FindByCampaignAndUser retrieves the voucher a user holds for a campaign.
func (s *VoucherService) FindByCampaignAndUser(ctx context.Context, campaignID, userID string) (*model.Voucher, error) {
	return s.vouchers.FindByCampaignAndUser(ctx, campaignID, userID)
}

// ListByCampaign retrieves all vouchers issued for a campaign.
func (s *VoucherService) ListByCampaign(ctx context.Context, campaignID string) ([]model.Voucher, error) {
	return s.vouchers.ListByCampaign(ctx, campaignID)
}

// ListByUser retrieves all vouchers claimed by a user.
func (s *VoucherService) ListByUser(ctx context.Context, userID string) ([]model.Voucher, error) {
	return s.vouchers.ListByUser(ctx, userID)
}
