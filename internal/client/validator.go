// Package client holds HTTP clients for the external collaborators: the
// user/role validator and the promotion notification publisher. Collaborator
// responses are parsed into typed results once, at this boundary.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/danswara/promo-service/internal/errs"
)

// ValidationResult is the validator's answer for a (user, role) check.
type ValidationResult struct {
	Active  bool   `json:"active"`
	Role    string `json:"role"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// userProfile is the validator's user record, used for email resolution.
type userProfile struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type cacheEntry struct {
	result   ValidationResult
	cachedAt time.Time
}

// Validator checks user activity and roles against the external user service.
//
// Positive results are cached in an LRU with a short TTL to soften the
// per-request synchronous call-out. Negative or failed validations are never
// cached, so an unreachable or denying validator always blocks the mutation.
type Validator struct {
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache
	cacheTTL   time.Duration
	clock      func() time.Time
}

// NewValidator creates a validator client. cacheSize <= 0 disables caching.
func NewValidator(baseURL string, timeout time.Duration, cacheSize int, cacheTTL time.Duration) (*Validator, error) {
	v := &Validator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cacheTTL:   cacheTTL,
		clock:      time.Now,
	}

	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create validator cache: %w", err)
		}
		v.cache = cache
	}

	return v, nil
}

// ValidateActiveUser answers whether the user is active and holds the role.
// Transport or decoding failures surface as dependency errors; callers decide
// how a negative result maps to their own guard.
func (v *Validator) ValidateActiveUser(ctx context.Context, userID, role string) (ValidationResult, error) {
	cacheKey := userID + "|" + role
	if v.cache != nil {
		if cached, ok := v.cache.Get(cacheKey); ok {
			entry := cached.(cacheEntry)
			if v.clock().Sub(entry.cachedAt) < v.cacheTTL {
				return entry.result, nil
			}
			v.cache.Remove(cacheKey)
		}
	}

	endpoint := fmt.Sprintf("%s/users/%s/validate?role=%s",
		v.baseURL, url.PathEscape(userID), url.QueryEscape(role))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ValidationResult{}, errs.Wrap(errs.KindDependency, "failed to build validator request", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return ValidationResult{}, errs.Wrap(errs.KindDependency, "validator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ValidationResult{}, errs.Newf(errs.KindDependency, "validator returned status %d", resp.StatusCode)
	}

	var result ValidationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ValidationResult{}, errs.Wrap(errs.KindDependency, "malformed validator response", err)
	}

	if v.cache != nil && result.Active && result.Role == role {
		v.cache.Add(cacheKey, cacheEntry{result: result, cachedAt: v.clock()})
	}

	return result, nil
}

// UserEmail resolves a user's email address for notification fan-out.
func (v *Validator) UserEmail(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/users/%s", v.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errs.Wrap(errs.KindDependency, "failed to build user request", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindDependency, "validator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.Newf(errs.KindDependency, "validator returned status %d", resp.StatusCode)
	}

	var profile userProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", errs.Wrap(errs.KindDependency, "malformed user response", err)
	}

	return profile.Email, nil
}
