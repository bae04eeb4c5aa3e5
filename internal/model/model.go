package model

import (
	"time"
)

// CampaignStatus is the lifecycle state of a campaign.
// Transitions only move forward: CREATED -> PROMOTED -> EXPIRED.
type CampaignStatus string

const (
	CampaignCreated  CampaignStatus = "CREATED"
	CampaignPromoted CampaignStatus = "PROMOTED"
	CampaignExpired  CampaignStatus = "EXPIRED"
)

// VoucherStatus is the lifecycle state of a voucher. CONSUMED is terminal.
type VoucherStatus string

const (
	VoucherClaimed  VoucherStatus = "CLAIMED"
	VoucherConsumed VoucherStatus = "CONSUMED"
)

// Roles checked against the user/role validator.
const (
	RoleMerchant = "MERCHANT"
	RoleCustomer = "CUSTOMER"
)

// Campaign represents a promotional campaign in the database
type Campaign struct {
	ID          string         `db:"id" json:"id"`
	Description string         `db:"description" json:"description"`
	StoreID     string         `db:"store_id" json:"store_id"`
	Status      CampaignStatus `db:"status" json:"status"`
	Tags        string         `db:"tags" json:"tags"`
	Inventory   int            `db:"inventory" json:"inventory"`
	Likes       int            `db:"likes" json:"likes"`
	PIN         int            `db:"pin" json:"-"`
	Terms       string         `db:"terms" json:"terms"`
	Amount      int64          `db:"amount" json:"amount"`
	StartDate   *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time     `db:"end_date" json:"end_date,omitempty"`
	Category    string         `db:"category" json:"category"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	UpdatedBy   string         `db:"updated_by" json:"updated_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	Deleted     bool           `db:"deleted" json:"-"`
}

// WindowOpen reports whether the campaign's validity window contains now.
// A start date equal to now counts as open.
func (c *Campaign) WindowOpen(now time.Time) bool {
	if c.StartDate == nil || c.EndDate == nil {
		return false
	}
	return !c.StartDate.After(now) && c.EndDate.After(now)
}

// Voucher represents one claimed unit of a campaign's inventory
type Voucher struct {
	ID         string        `db:"id" json:"id"`
	CampaignID string        `db:"campaign_id" json:"campaign_id"`
	Status     VoucherStatus `db:"status" json:"status"`
	UserID     string        `db:"user_id" json:"user_id"`
	Amount     int64         `db:"amount" json:"amount"`
	ClaimedAt  time.Time     `db:"claimed_at" json:"claimed_at"`
	ConsumedAt *time.Time    `db:"consumed_at" json:"consumed_at,omitempty"`
}

// Store represents a merchant store that owns campaigns
type Store struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	City      string    `db:"city" json:"city"`
	Zip       string    `db:"zip" json:"zip"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	Deleted   bool      `db:"deleted" json:"-"`
}
