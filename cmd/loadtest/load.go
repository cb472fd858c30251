package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Limit       int
	Queries     []string
}

// Stats is shared by all workers.
type Stats struct {
	mu          sync.Mutex
	total       int64
	success     int64
	errors      int64
	zeroResults int64
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) Record(latency time.Duration, status int, hits int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if err != nil {
		s.errors++
		return
	}
	s.statusCodes[status]++
	s.latencies = append(s.latencies, latency)
	if status < 200 || status >= 300 {
		s.errors++
		return
	}
	s.success++
	if hits == 0 {
		s.zeroResults++
	}
}

type StatusCount struct {
	Code  int
	Count int64
}

type Latency struct {
	Count                        int
	Min, Avg, P50, P95, P99, Max time.Duration
	StdDev                       time.Duration
}

type Report struct {
	Total          int64
	Success        int64
	Errors         int64
	ZeroResults    int64
	ErrorRate      float64
	RequestsPerSec float64
	Latency        Latency
	StatusCodes    []StatusCount
}

// Report summarises the run. elapsed is the wall time the workers ran for.
func (s *Stats) Report(elapsed time.Duration) Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Report{
		Total:       s.total,
		Success:     s.success,
		Errors:      s.errors,
		ZeroResults: s.zeroResults,
	}
	if s.total > 0 {
		r.ErrorRate = float64(s.errors) / float64(s.total) * 100
		if elapsed > 0 {
			r.RequestsPerSec = float64(s.total) / elapsed.Seconds()
		}
	}
	r.Latency = summarise(s.latencies)
	for code, count := range s.statusCodes {
		r.StatusCodes = append(r.StatusCodes, StatusCount{Code: code, Count: count})
	}
	sort.Slice(r.StatusCodes, func(i, j int) bool {
		return r.StatusCodes[i].Code < r.StatusCodes[j].Code
	})
	return r
}

func summarise(latencies []time.Duration) Latency {
	if len(latencies) == 0 {
		return Latency{}
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	avg := sum / time.Duration(len(sorted))
	var sumSquared float64
	for _, l := range sorted {
		diff := float64(l - avg)
		sumSquared += diff * diff
	}
	return Latency{
		Count:  len(sorted),
		Min:    sorted[0],
		Avg:    avg,
		P50:    percentile(sorted, 50),
		P95:    percentile(sorted, 95),
		P99:    percentile(sorted, 99),
		Max:    sorted[len(sorted)-1],
		StdDev: time.Duration(math.Sqrt(sumSquared / float64(len(sorted)))),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func newClient(concurrency int) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Run replays cfg.Queries round-robin from cfg.Concurrency workers until
// ctx ends.
func Run(ctx context.Context, cfg Config, client *http.Client) *Stats {
	stats := NewStats()
	var g errgroup.Group
	for w := 0; w < cfg.Concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				start := time.Now()
				status, hits, err := search(ctx, client, cfg, query)
				if ctx.Err() != nil {
					return nil
				}
				stats.Record(time.Since(start), status, hits, err)
			}
			return nil
		})
	}
	g.Wait()
	return stats
}

func search(ctx context.Context, client *http.Client, cfg Config, query string) (int, int, error) {
	target := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", cfg.BaseURL, url.QueryEscape(query), cfg.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return resp.StatusCode, 0, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, len(body.Results), nil
}
