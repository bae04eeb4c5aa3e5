package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/danswara/promo-service/internal/errs"
)

// PromotionNotice is the payload published when a campaign is promoted.
type PromotionNotice struct {
	CampaignID  string `json:"campaign_id"`
	StoreID     string `json:"store_id"`
	Description string `json:"description"`
	UserEmail   string `json:"user_email"`
}

// Notifier publishes promotion notices to the notification collaborator.
// Delivery is best-effort: callers log failures and move on.
type Notifier struct {
	url        string
	httpClient *http.Client
}

// NewNotifier creates a notification publisher client
func NewNotifier(url string, timeout time.Duration) *Notifier {
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NotifyPromotion posts the notice to the notification endpoint
func (n *Notifier) NotifyPromotion(ctx context.Context, notice PromotionNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to encode promotion notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(errs.KindDependency, "failed to build notification request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindDependency, "notification publisher unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.Newf(errs.KindDependency, "notification publisher returned status %d", resp.StatusCode)
	}

	return nil
}
