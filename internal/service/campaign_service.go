package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danswara/promo-service/internal/client"
	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/model"
)

// CampaignService owns campaign state transitions and campaign-level
// invariants. Campaigns move CREATED -> PROMOTED and are only expired by the
// background sweeper.
type CampaignService struct {
	campaigns CampaignStore
	vouchers  VoucherStore
	stores    StoreDirectory
	validator UserValidator
	notifier  PromotionNotifier
	clock     func() time.Time
	newID     func() string
	newPIN    func() int
}

// NewCampaignService creates a campaign service with default clock, ID and
// PIN generators.
func NewCampaignService(campaigns CampaignStore, vouchers VoucherStore, stores StoreDirectory, validator UserValidator, notifier PromotionNotifier) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		vouchers:  vouchers,
		stores:    stores,
		validator: validator,
		notifier:  notifier,
		clock:     time.Now,
		newID:     uuid.NewString,
		newPIN:    func() int { return 1000 + rand.IntN(9000) },
	}
}

// Create registers a new campaign for a store. The creator must be an active
// merchant. Guards run in order: field validation, duplicate description,
// store existence, creator authorization.
func (s *CampaignService) Create(ctx context.Context, in *model.Campaign) (*model.Campaign, error) {
	switch {
	case in.Description == "":
		return nil, errs.New(errs.KindValidation, "description is required")
	case in.Category == "":
		return nil, errs.New(errs.KindValidation, "category is required")
	case in.StoreID == "":
		return nil, errs.New(errs.KindValidation, "store reference is required")
	case in.CreatedBy == "":
		return nil, errs.New(errs.KindValidation, "creator is required")
	case in.Inventory < 0:
		return nil, errs.New(errs.KindValidation, "inventory must not be negative")
	}

	exists, err := s.campaigns.ExistsByDescription(ctx, in.Description)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.New(errs.KindDuplicate, "campaign with this description already exists")
	}

	storeExists, err := s.stores.Exists(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}
	if !storeExists {
		return nil, errs.New(errs.KindNotFound, "store not found")
	}

	if err := requireActive(ctx, s.validator, in.CreatedBy, model.RoleMerchant); err != nil {
		return nil, err
	}

	now := s.clock()
	campaign := *in
	campaign.ID = s.newID()
	campaign.PIN = s.newPIN()
	campaign.Status = model.CampaignCreated
	campaign.UpdatedBy = in.CreatedBy
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	campaign.Deleted = false

	if err := s.campaigns.Create(ctx, &campaign); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"store_id":    campaign.StoreID,
	}).Info("campaign created")

	return &campaign, nil
}

// Update overwrites the mutable fields of a campaign still in CREATED state.
// Identifier, store reference, creator and PIN are immutable; the inventory
// size is frozen once vouchers exist.
func (s *CampaignService) Update(ctx context.Context, in *model.Campaign) (*model.Campaign, error) {
	if in.ID == "" {
		return nil, errs.New(errs.KindValidation, "campaign id is required")
	}
	if in.UpdatedBy == "" {
		return nil, errs.New(errs.KindValidation, "updater is required")
	}

	if err := requireActive(ctx, s.validator, in.UpdatedBy, model.RoleMerchant); err != nil {
		return nil, err
	}

	existing, err := s.campaigns.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.CampaignCreated {
		return nil, errs.Newf(errs.KindInvalidState, "campaign is %s and can no longer be updated", existing.Status)
	}

	if in.Inventory != existing.Inventory {
		issued, err := s.vouchers.CountByCampaign(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		if issued > 0 {
			return nil, errs.New(errs.KindValidation, "inventory size is fixed once vouchers exist")
		}
	}
	if in.Inventory < 0 {
		return nil, errs.New(errs.KindValidation, "inventory must not be negative")
	}

	updated := *existing
	updated.Description = in.Description
	updated.Amount = in.Amount
	updated.StartDate = in.StartDate
	updated.EndDate = in.EndDate
	updated.Likes = in.Likes
	updated.Inventory = in.Inventory
	updated.Tags = in.Tags
	updated.Terms = in.Terms
	updated.Category = in.Category
	updated.UpdatedBy = in.UpdatedBy
	updated.UpdatedAt = s.clock()

	ok, err := s.campaigns.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent promote or sweep.
		return nil, s.staleWriteError(ctx, in.ID)
	}

	return &updated, nil
}

// Promote makes a CREATED campaign publicly claimable. When the validity
// window has not opened yet the call is a no-op and returns the record
// unchanged. On success a best-effort promotion notice is published; notice
// failures never fail the promotion.
func (s *CampaignService) Promote(ctx context.Context, campaignID, userID string) (*model.Campaign, error) {
	if err := requireActive(ctx, s.validator, userID, model.RoleMerchant); err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignCreated {
		return nil, errs.Newf(errs.KindInvalidState, "campaign is %s and cannot be promoted", campaign.Status)
	}
	if campaign.StartDate == nil || campaign.EndDate == nil {
		return nil, errs.New(errs.KindValidation, "campaign has no validity window")
	}
	if !campaign.EndDate.After(*campaign.StartDate) {
		return nil, errs.New(errs.KindValidation, "end date must be after start date")
	}

	now := s.clock()
	if !campaign.EndDate.After(now) {
		return nil, errs.New(errs.KindValidation, "campaign end date has already passed")
	}
	if campaign.StartDate.After(now) {
		// Window not open yet: no transition, return the record unchanged.
		logrus.WithFields(logrus.Fields{
			"campaign_id": campaignID,
			"start_date":  campaign.StartDate.Format(time.RFC3339),
		}).Warn("promote before start date, nothing to do")
		return campaign, nil
	}

	ok, err := s.campaigns.MarkPromoted(ctx, campaignID, userID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.staleWriteError(ctx, campaignID)
	}

	campaign.Status = model.CampaignPromoted
	campaign.UpdatedBy = userID
	campaign.UpdatedAt = now

	s.publishPromotionNotice(ctx, campaign, userID)

	return campaign, nil
}

// Get retrieves a campaign together with its derived claimed count.
func (s *CampaignService) Get(ctx context.Context, campaignID string) (*model.Campaign, int, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}

	issued, err := s.vouchers.CountByCampaign(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}

	return campaign, issued, nil
}

// ListByStore retrieves all campaigns owned by a store.
func (s *CampaignService) ListByStore(ctx context.Context, storeID string) ([]model.Campaign, error) {
	return s.campaigns.ListByStore(ctx, storeID)
}

// publishPromotionNotice resolves the promoting user's email and publishes
// the notice. Both steps are best-effort.
func (s *CampaignService) publishPromotionNotice(ctx context.Context, campaign *model.Campaign, userID string) {
	email, err := s.validator.UserEmail(ctx, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"campaign_id": campaign.ID,
			"user_id":     userID,
		}).WithError(err).Warn("failed to resolve email for promotion notice")
	}

	notice := client.PromotionNotice{
		CampaignID:  campaign.ID,
		StoreID:     campaign.StoreID,
		Description: campaign.Description,
		UserEmail:   email,
	}
	if err := s.notifier.NotifyPromotion(ctx, notice); err != nil {
		logrus.WithField("campaign_id", campaign.ID).WithError(err).Warn("failed to publish promotion notice")
	}
}

// staleWriteError re-reads a campaign after a conditional write matched no
// rows and reports why.
func (s *CampaignService) staleWriteError(ctx context.Context, campaignID string) error {
	current, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	return errs.Newf(errs.KindInvalidState, "campaign is %s and can no longer be modified", current.Status)
}
