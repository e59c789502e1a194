package loadtest

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/platformbuilds/lineboard/pkg/logger"
)

// Config holds configuration for a load test against the metrics API.
type Config struct {
	BaseURL           string
	Duration          time.Duration
	ConcurrentWorkers int
	Patterns          []RequestPattern
	// Pause between requests of one worker.
	Pause time.Duration
}

// RequestPattern is one metrics request shape with a selection weight.
type RequestPattern struct {
	Unit        string
	Hourly      bool
	Window      time.Duration // ending now
	WorkingMode string
	Weight      int
}

// Result holds the results of a load test.
type Result struct {
	TotalDuration      time.Duration `json:"duration"`
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	AvgLatency         time.Duration `json:"avg_latency"`
	P95Latency         time.Duration `json:"p95_latency"`
	P99Latency         time.Duration `json:"p99_latency"`
	RPS                float64       `json:"rps"`
	StatusCodes        map[int]int64 `json:"status_codes"`
	Errors             []string      `json:"errors,omitempty"`
}

// Doer sends HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Tester drives concurrent metrics requests.
type Tester struct {
	config Config
	client Doer
	logger logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	latencies []time.Duration
	result    Result
}

func NewTester(config Config, client Doer, logger logger.Logger) (*Tester, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if len(config.Patterns) == 0 {
		return nil, fmt.Errorf("at least one request pattern is required")
	}
	total := 0
	for _, p := range config.Patterns {
		if p.Weight < 0 || strings.TrimSpace(p.Unit) == "" {
			return nil, fmt.Errorf("invalid pattern %+v", p)
		}
		total += p.Weight
	}
	if total == 0 {
		return nil, fmt.Errorf("pattern weights sum to zero")
	}
	if config.ConcurrentWorkers < 1 {
		config.ConcurrentWorkers = 1
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Tester{
		config: config,
		client: client,
		logger: logger,
		now:    time.Now,
		result: Result{StatusCodes: make(map[int]int64)},
	}, nil
}

// Run executes the load test until the duration elapses or ctx is done.
func (lt *Tester) Run(ctx context.Context) (*Result, error) {
	lt.logger.Info("Starting load test", "duration", lt.config.Duration, "workers", lt.config.ConcurrentWorkers, "target", lt.config.BaseURL)

	testCtx, cancel := context.WithTimeout(ctx, lt.config.Duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < lt.config.ConcurrentWorkers; i++ {
		wg.Add(1)
		go lt.worker(testCtx, &wg, rand.New(rand.NewSource(int64(i)+start.UnixNano())))
	}
	wg.Wait()

	lt.mu.Lock()
	defer lt.mu.Unlock()
	res := lt.result
	res.TotalDuration = time.Since(start)
	if n := len(lt.latencies); n > 0 {
		sort.Slice(lt.latencies, func(i, j int) bool { return lt.latencies[i] < lt.latencies[j] })
		res.AvgLatency = average(lt.latencies)
		res.P95Latency = percentile(lt.latencies, 95)
		res.P99Latency = percentile(lt.latencies, 99)
	}
	if secs := res.TotalDuration.Seconds(); secs > 0 {
		res.RPS = float64(res.TotalRequests) / secs
	}

	lt.logger.Info("Load test completed",
		"total_requests", res.TotalRequests,
		"failed_requests", res.FailedRequests,
		"avg_latency", res.AvgLatency,
		"rps", res.RPS)
	return &res, nil
}

func (lt *Tester) worker(ctx context.Context, wg *sync.WaitGroup, rng *rand.Rand) {
	defer wg.Done()
	for ctx.Err() == nil {
		target := lt.requestURL(lt.pick(rng))
		began := time.Now()
		status, err := lt.execute(ctx, target)
		if ctx.Err() != nil {
			// Requests cut off by the deadline are not counted.
			return
		}
		lt.record(status, time.Since(began), err)

		if lt.config.Pause > 0 {
			select {
			case <-time.After(lt.config.Pause):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (lt *Tester) pick(rng *rand.Rand) RequestPattern {
	total := 0
	for _, p := range lt.config.Patterns {
		total += p.Weight
	}
	r := rng.Intn(total)
	for _, p := range lt.config.Patterns {
		if r < p.Weight {
			return p
		}
		r -= p.Weight
	}
	return lt.config.Patterns[0]
}

func (lt *Tester) requestURL(p RequestPattern) string {
	end := lt.now()
	kind := "metrics"
	if p.Hourly {
		kind = "hourly"
	}
	q := url.Values{}
	q.Set("start_time", end.Add(-p.Window).Format(time.RFC3339))
	q.Set("end_time", end.Format(time.RFC3339))
	if p.WorkingMode != "" {
		q.Set("working_mode", p.WorkingMode)
	}
	return fmt.Sprintf("%s/api/v1/units/%s/%s?%s", strings.TrimRight(lt.config.BaseURL, "/"), url.PathEscape(p.Unit), kind, q.Encode())
}

func (lt *Tester) execute(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := lt.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("GET %s -> %s", req.URL.Path, resp.Status)
	}
	return resp.StatusCode, nil
}

func (lt *Tester) record(status int, latency time.Duration, err error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.result.TotalRequests++
	if status != 0 {
		lt.result.StatusCodes[status]++
	}
	if err != nil {
		lt.result.FailedRequests++
		// Keep the error list short.
		if len(lt.result.Errors) < 20 {
			lt.result.Errors = append(lt.result.Errors, err.Error())
		}
		return
	}
	lt.result.SuccessfulRequests++
	lt.latencies = append(lt.latencies, latency)
}

func average(times []time.Duration) time.Duration {
	var sum time.Duration
	for _, t := range times {
		sum += t
	}
	return sum / time.Duration(len(times))
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	index := int(float64(len(sorted)-1) * p / 100.0)
	return sorted[index]
}
