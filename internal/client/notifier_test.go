package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danswara/promo-service/internal/errs"
)

func TestNotifyPromotion(t *testing.T) {
	var received PromotionNotice
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode notice: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, time.Second)
	notice := PromotionNotice{
		CampaignID:  "camp-1",
		StoreID:     "store-1",
		Description: "50% off all drinks",
		UserEmail:   "merchant@example.com",
	}
	if err := n.NotifyPromotion(context.Background(), notice); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if received != notice {
		t.Fatalf("received %+v", received)
	}
}

func TestNotifyPromotionFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, time.Second)
	err := n.NotifyPromotion(context.Background(), PromotionNotice{CampaignID: "camp-1"})
	if !errs.IsKind(err, errs.KindDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	unreachable := NewNotifier("http://127.0.0.1:1", 100*time.Millisecond)
	err = unreachable.NotifyPromotion(context.Background(), PromotionNotice{CampaignID: "camp-1"})
	if !errs.IsKind(err, errs.KindDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
