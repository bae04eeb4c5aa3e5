package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock-contention on hot paths.
// LatencySum & P95Latency are in nanoseconds.
//
// P95Latency is maintained via a lightweight reservoir sampler.
type PerfResult struct {
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

const (
	fixedWorkers   = 50
	fixedRPSTarget = 700
	fixedDuration  = 30 * time.Second
	defaultTimeout = 30 * time.Second
)

func main() {
	baseURL := os.Getenv("PERF_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	campaignID := os.Getenv("PERF_CAMPAIGN_ID")
	if campaignID == "" {
		fmt.Fprintln(os.Stderr, "PERF_CAMPAIGN_ID is required: point it at a promoted campaign")
		os.Exit(1)
	}

	rps := fixedRPSTarget
	duration := fixedDuration
	workers := fixedWorkers

	transport := &http.Transport{
		MaxIdleConns:        workers * 4,
		MaxIdleConnsPerHost: workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}

	fmt.Println("==========================================")
	fmt.Println("voucher claim load test")
	fmt.Println("==========================================")
	fmt.Printf("campaign id : %s\n", campaignID)
	fmt.Printf("target RPS  : %d\n", rps)
	fmt.Printf("duration    : %v\n", duration)
	fmt.Println("==========================================")

	burst := rps / workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var result PerfResult
	var userSeq int64
	var wg sync.WaitGroup

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	go trackP95(latencyChan, &result)

	runID := time.Now().UnixNano()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil { // context cancelled -> exit
					return
				}
				// Each claim gets a fresh user so the duplicate guard
				// does not reject the run itself.
				userID := fmt.Sprintf("perf_%d_%d", runID, atomic.AddInt64(&userSeq, 1))
				doClaim(httpClient, baseURL, campaignID, userID, &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done() // wait for duration

	wg.Wait()
	close(latencyChan)

	totalDur := time.Since(start)

	fmt.Println("==========================================")
	fmt.Println("results")
	fmt.Println("==========================================")
	fmt.Printf("elapsed          : %.2fs\n", totalDur.Seconds())
	fmt.Printf("total requests   : %d\n", result.TotalRequests)
	fmt.Printf("succeeded        : %d\n", result.SuccessCount)
	fmt.Printf("failed           : %d\n", result.ErrorCount)

	actualRPS := float64(result.SuccessCount) / totalDur.Seconds()
	successRate := float64(result.SuccessCount) / float64(result.TotalRequests) * 100

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Printf("actual RPS       : %.2f\n", actualRPS)
	fmt.Printf("success rate     : %.2f%%\n", successRate)
	fmt.Printf("avg latency      : %v\n", avgLatency)
	fmt.Printf("p95 latency      : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")

	if err := verifyConsistency(httpClient, baseURL, campaignID, result.SuccessCount); err != nil {
		fmt.Printf("consistency check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("consistency check passed")
}

// doClaim performs a single claim request and collects metrics.
func doClaim(httpClient *http.Client, baseURL, campaignID, userID string, result *PerfResult, latencyChan chan<- time.Duration) {
	// Use independent context to avoid cancellation when test ends
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{
		"campaign_id": campaignID,
		"user_id":     userID,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/api/vouchers/claim", bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resp, err := httpClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	} else {
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else {
			// Replace random element (simple reservoir sampling)
			if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
				buf[idx] = lat.Nanoseconds()
			}
		}

		// Update P95 periodically
		if len(buf) >= 100 && len(buf)%100 == 0 {
			copyBuf := make([]int64, len(buf))
			copy(copyBuf, buf)
			quickSort(copyBuf)
			p95Index := int(float64(len(copyBuf)) * 0.95)
			if p95Index >= len(copyBuf) {
				p95Index = len(copyBuf) - 1
			}
			atomic.StoreInt64(&result.P95Latency, copyBuf[p95Index])
		}
	}
}

// quickSort sorts the array in ascending order
func quickSort(arr []int64) {
	if len(arr) < 2 {
		return
	}

	left, right := 0, len(arr)-1
	pivot := len(arr) / 2

	arr[pivot], arr[right] = arr[right], arr[pivot]

	for i := range arr {
		if arr[i] < arr[right] {
			arr[left], arr[i] = arr[i], arr[left]
			left++
		}
	}

	arr[left], arr[right] = arr[right], arr[left]

	quickSort(arr[:left])
	quickSort(arr[left+1:])
}

// verifyConsistency compares the claimed count reported by the service with
// the number of claims the run observed as successful.
func verifyConsistency(httpClient *http.Client, baseURL, campaignID string, expectedClaims int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/api/campaigns/"+campaignID, nil)
	if err != nil {
		return fmt.Errorf("failed to build campaign request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("campaign lookup returned status %d", resp.StatusCode)
	}

	var payload struct {
		Campaign struct {
			Inventory int `json:"inventory"`
		} `json:"campaign"`
		Claimed int64 `json:"claimed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode campaign response: %w", err)
	}

	fmt.Printf("inventory        : %d\n", payload.Campaign.Inventory)
	fmt.Printf("claimed (server) : %d\n", payload.Claimed)
	fmt.Printf("claimed (client)  : %d\n", expectedClaims)

	if payload.Claimed < expectedClaims {
		return fmt.Errorf("mismatch: server=%d, client=%d", payload.Claimed, expectedClaims)
	}
	if payload.Claimed > int64(payload.Campaign.Inventory) {
		return fmt.Errorf("over-allocation: claimed=%d > inventory=%d",
			payload.Claimed, payload.Campaign.Inventory)
	}

	return nil
}
