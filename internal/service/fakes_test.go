package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/danswara/promo-service/internal/client"
	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/model"
)

// memCampaigns is an in-memory CampaignStore.
type memCampaigns struct {
	mu    sync.Mutex
	items map[string]*model.Campaign
}

func newMemCampaigns() *memCampaigns {
	return &memCampaigns{items: make(map[string]*model.Campaign)}
}

func (m *memCampaigns) Create(ctx context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	m.items[c.ID] = &stored
	return nil
}

func (m *memCampaigns) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.Deleted {
		return nil, errs.New(errs.KindNotFound, "campaign not found")
	}
	out := *c
	return &out, nil
}

func (m *memCampaigns) ExistsByDescription(ctx context.Context, description string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if !c.Deleted && c.Description == description {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCampaigns) Update(ctx context.Context, c *model.Campaign) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[c.ID]
	if !ok || existing.Deleted || existing.Status != model.CampaignCreated {
		return false, nil
	}
	stored := *c
	m.items[c.ID] = &stored
	return true, nil
}

func (m *memCampaigns) MarkPromoted(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.Deleted || c.Status != model.CampaignCreated {
		return false, nil
	}
	c.Status = model.CampaignPromoted
	c.UpdatedBy = userID
	c.UpdatedAt = now
	return true, nil
}

func (m *memCampaigns) ListByStore(ctx context.Context, storeID string) ([]model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Campaign
	for _, c := range m.items {
		if !c.Deleted && c.StoreID == storeID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// memVouchers is an in-memory VoucherStore. Claim holds the mutex across all
// three guards and the insert, mirroring the row-lock serialization of the
// real store.
type memVouchers struct {
	mu        sync.Mutex
	campaigns *memCampaigns
	items     map[string]*model.Voucher
}

func newMemVouchers(campaigns *memCampaigns) *memVouchers {
	return &memVouchers{campaigns: campaigns, items: make(map[string]*model.Voucher)}
}

func (m *memVouchers) Claim(ctx context.Context, campaignID, userID, voucherID string, now time.Time) (*model.Voucher, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	campaign, err := m.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}

	issued := 0
	for _, v := range m.items {
		if v.CampaignID != campaignID {
			continue
		}
		if v.UserID == userID {
			return nil, 0, errs.New(errs.KindAlreadyClaimed, "user already claimed a voucher for this campaign")
		}
		issued++
	}
	if issued >= campaign.Inventory {
		return nil, 0, errs.New(errs.KindCapacityExceeded, "campaign inventory is exhausted")
	}

	voucher := &model.Voucher{
		ID:         voucherID,
		CampaignID: campaignID,
		Status:     model.VoucherClaimed,
		UserID:     userID,
		Amount:     campaign.Amount,
		ClaimedAt:  now,
	}
	m.items[voucherID] = voucher

	out := *voucher
	return &out, issued + 1, nil
}

func (m *memVouchers) Consume(ctx context.Context, voucherID string, now time.Time) (*model.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[voucherID]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "voucher not found")
	}
	if v.Status != model.VoucherClaimed {
		return nil, errs.Newf(errs.KindInvalidState, "voucher is %s and cannot be consumed", v.Status)
	}
	v.Status = model.VoucherConsumed
	consumedAt := now
	v.ConsumedAt = &consumedAt
	out := *v
	return &out, nil
}

func (m *memVouchers) GetByID(ctx context.Context, voucherID string) (*model.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[voucherID]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "voucher not found")
	}
	out := *v
	return &out, nil
}

func (m *memVouchers) FindByCampaignAndUser(ctx context.Context, campaignID, userID string) (*model.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.items {
		if v.CampaignID == campaignID && v.UserID == userID {
			out := *v
			return &out, nil
		}
	}
	return nil, errs.New(errs.KindNotFound, "voucher not found")
}

func (m *memVouchers) ListByCampaign(ctx context.Context, campaignID string) ([]model.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Voucher
	for _, v := range m.items {
		if v.CampaignID == campaignID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memVouchers) ListByUser(ctx context.Context, userID string) ([]model.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Voucher
	for _, v := range m.items {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memVouchers) CountByCampaign(ctx context.Context, campaignID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, v := range m.items {
		if v.CampaignID == campaignID {
			count++
		}
	}
	return count, nil
}

// memStores is an in-memory StoreDirectory.
type memStores struct {
	mu    sync.Mutex
	items map[string]*model.Store
}

func newMemStores() *memStores {
	return &memStores{items: make(map[string]*model.Store)}
}

func (m *memStores) Create(ctx context.Context, s *model.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if !existing.Deleted && existing.Name == s.Name {
			return errs.New(errs.KindDuplicate, "store name already in use")
		}
	}
	stored := *s
	m.items[s.ID] = &stored
	return nil
}

func (m *memStores) GetByID(ctx context.Context, id string) (*model.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok || s.Deleted {
		return nil, errs.New(errs.KindNotFound, "store not found")
	}
	out := *s
	return &out, nil
}

func (m *memStores) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	return ok && !s.Deleted, nil
}

func (m *memStores) Update(ctx context.Context, s *model.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[s.ID]
	if !ok || existing.Deleted {
		return errs.New(errs.KindNotFound, "store not found")
	}
	stored := *s
	m.items[s.ID] = &stored
	return nil
}

func (m *memStores) SoftDelete(ctx context.Context, id, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok || s.Deleted {
		return errs.New(errs.KindNotFound, "store not found")
	}
	s.Deleted = true
	s.UpdatedBy = userID
	s.UpdatedAt = now
	return nil
}

// stubValidator answers role checks from a fixed userID -> role table.
type stubValidator struct {
	roles    map[string]string
	err      error
	emails   map[string]string
	emailErr error
}

func (f *stubValidator) ValidateActiveUser(ctx context.Context, userID, role string) (client.ValidationResult, error) {
	if f.err != nil {
		return client.ValidationResult{}, f.err
	}
	held, ok := f.roles[userID]
	return client.ValidationResult{Active: ok, Role: held, UserID: userID}, nil
}

func (f *stubValidator) UserEmail(ctx context.Context, userID string) (string, error) {
	if f.emailErr != nil {
		return "", f.emailErr
	}
	return f.emails[userID], nil
}

// stubNotifier records published notices.
type stubNotifier struct {
	mu      sync.Mutex
	notices []client.PromotionNotice
	err     error
}

func (f *stubNotifier) NotifyPromotion(ctx context.Context, notice client.PromotionNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, notice)
	return nil
}

func (f *stubNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}

// stubUploader returns a fixed URL.
type stubUploader struct {
	url        string
	err        error
	gotStoreID string
}

func (f *stubUploader) UploadStoreImage(ctx context.Context, storeID string, body io.Reader, contentType string) (string, error) {
	f.gotStoreID = storeID
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// sequenceIDs returns an ID generator producing prefix-1, prefix-2, ...
func sequenceIDs(prefix string) func() string {
	var n int
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
