package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/danswara/promo-service/internal/errs"
	"github.com/danswara/promo-service/internal/model"
)

type voucherFixture struct {
	service   *VoucherService
	campaigns *memCampaigns
	vouchers  *memVouchers
	validator *stubValidator
	now       time.Time
}

func newVoucherFixture(inventory int) *voucherFixture {
	campaigns := newMemCampaigns()
	vouchers := newMemVouchers(campaigns)
	validator := &stubValidator{roles: map[string]string{
		"merchant-1": model.RoleMerchant,
		"customer-1": model.RoleCustomer,
	}}

	fixture := &voucherFixture{
		campaigns: campaigns,
		vouchers:  vouchers,
		validator: validator,
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	fixture.service = &VoucherService{
		vouchers:  vouchers,
		validator: validator,
		clock:     func() time.Time { return fixture.now },
		newID:     sequenceIDs("vouch"),
	}

	campaigns.items["camp-1"] = &model.Campaign{
		ID:        "camp-1",
		StoreID:   "store-1",
		Status:    model.CampaignPromoted,
		Inventory: inventory,
		Amount:    5000,
	}
	return fixture
}

func (f *voucherFixture) addCustomers(n int) []string {
	users := make([]string, n)
	for i := range users {
		users[i] = fmt.Sprintf("cust-%d", i)
		f.validator.roles[users[i]] = model.RoleCustomer
	}
	return users
}

func TestClaimVoucher(t *testing.T) {
	f := newVoucherFixture(10)

	voucher, issued, err := f.service.Claim(context.Background(), "camp-1", "customer-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if voucher.Status != model.VoucherClaimed {
		t.Errorf("expected CLAIMED, got %s", voucher.Status)
	}
	if voucher.CampaignID != "camp-1" || voucher.UserID != "customer-1" {
		t.Errorf("voucher binding %s/%s", voucher.CampaignID, voucher.UserID)
	}
	if voucher.Amount != 5000 {
		t.Errorf("expected amount snapshot 5000, got %d", voucher.Amount)
	}
	if !voucher.ClaimedAt.Equal(f.now) {
		t.Errorf("claimed_at %v", voucher.ClaimedAt)
	}
	if issued != 1 {
		t.Errorf("expected issued count 1, got %d", issued)
	}
}

func TestClaimGuards(t *testing.T) {
	f := newVoucherFixture(1)

	if _, _, err := f.service.Claim(context.Background(), "no-such-campaign", "customer-1"); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("unknown campaign: expected not found, got %v", err)
	}

	if _, _, err := f.service.Claim(context.Background(), "camp-1", "merchant-1"); !errs.IsKind(err, errs.KindUnauthorized) {
		t.Errorf("merchant claim: expected unauthorized, got %v", err)
	}
	if count, _ := f.vouchers.CountByCampaign(context.Background(), "camp-1"); count != 0 {
		t.Errorf("unauthorized claim must not allocate, count=%d", count)
	}

	if _, _, err := f.service.Claim(context.Background(), "camp-1", "customer-1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, _, err := f.service.Claim(context.Background(), "camp-1", "customer-1"); !errs.IsKind(err, errs.KindAlreadyClaimed) {
		t.Errorf("repeat claim: expected already claimed, got %v", err)
	}

	f.validator.roles["customer-2"] = model.RoleCustomer
	if _, _, err := f.service.Claim(context.Background(), "camp-1", "customer-2"); !errs.IsKind(err, errs.KindCapacityExceeded) {
		t.Errorf("full campaign: expected capacity exceeded, got %v", err)
	}
}

func TestClaimConcurrentCapacity(t *testing.T) {
	const contenders = 20

	f := newVoucherFixture(1)
	users := f.addCustomers(contenders)

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	start := make(chan struct{})

	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			<-start
			_, _, err := f.service.Claim(context.Background(), "camp-1", user)
			results <- err
		}(user)
	}

	close(start)
	wg.Wait()
	close(results)

	var wins, capacityHits int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errs.IsKind(err, errs.KindCapacityExceeded):
			capacityHits++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
	if capacityHits != contenders-1 {
		t.Errorf("expected %d capacity rejections, got %d", contenders-1, capacityHits)
	}
	if count, _ := f.vouchers.CountByCampaign(context.Background(), "camp-1"); count != 1 {
		t.Errorf("expected exactly 1 voucher stored, got %d", count)
	}
}

func TestClaimConcurrentDuplicate(t *testing.T) {
	const attempts = 10

	f := newVoucherFixture(attempts)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := f.service.Claim(context.Background(), "camp-1", "customer-1")
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	var wins, duplicates int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errs.IsKind(err, errs.KindAlreadyClaimed):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("expected exactly 1 successful claim, got %d", wins)
	}
	if duplicates != attempts-1 {
		t.Errorf("expected %d duplicate rejections, got %d", attempts-1, duplicates)
	}
	if count, _ := f.vouchers.CountByCampaign(context.Background(), "camp-1"); count != 1 {
		t.Errorf("expected exactly 1 voucher stored, got %d", count)
	}
}

func TestConsumeVoucher(t *testing.T) {
	f := newVoucherFixture(10)

	voucher, _, err := f.service.Claim(context.Background(), "camp-1", "customer-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	f.now = f.now.Add(time.Hour)
	consumed, err := f.service.Consume(context.Background(), voucher.ID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.Status != model.VoucherConsumed {
		t.Errorf("expected CONSUMED, got %s", consumed.Status)
	}
	if consumed.ConsumedAt == nil || !consumed.ConsumedAt.Equal(f.now) {
		t.Errorf("consumed_at %v", consumed.ConsumedAt)
	}

	// CONSUMED is terminal; a failed retry leaves the record untouched.
	firstConsumedAt := *consumed.ConsumedAt
	f.now = f.now.Add(time.Hour)
	_, err = f.service.Consume(context.Background(), voucher.ID)
	if !errs.IsKind(err, errs.KindInvalidState) {
		t.Fatalf("second consume: expected invalid state, got %v", err)
	}

	stored, err := f.vouchers.GetByID(context.Background(), voucher.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != model.VoucherConsumed {
		t.Errorf("stored status changed to %s", stored.Status)
	}
	if stored.ConsumedAt == nil || !stored.ConsumedAt.Equal(firstConsumedAt) {
		t.Errorf("consume timestamp changed to %v", stored.ConsumedAt)
	}
}

func TestConsumeUnknownVoucher(t *testing.T) {
	f := newVoucherFixture(10)
	_, err := f.service.Consume(context.Background(), "missing")
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVoucherLookups(t *testing.T) {
	f := newVoucherFixture(10)
	users := f.addCustomers(3)

	for _, user := range users {
		if _, _, err := f.service.Claim(context.Background(), "camp-1", user); err != nil {
			t.Fatalf("claim %s: %v", user, err)
		}
	}

	found, err := f.service.FindByCampaignAndUser(context.Background(), "camp-1", users[1])
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.UserID != users[1] {
		t.Errorf("found voucher for %q", found.UserID)
	}

	byCampaign, err := f.service.ListByCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("list by campaign: %v", err)
	}
	if len(byCampaign) != 3 {
		t.Errorf("expected 3 vouchers, got %d", len(byCampaign))
	}

	byUser, err := f.service.ListByUser(context.Background(), users[0])
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 1 {
		t.Errorf("expected 1 voucher, got %d", len(byUser))
	}
}
