package ctl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	vegeta "github.com/tsenart/vegeta/lib"
)

// BenchmarkConfig describes one load run against POST /v1/greetings.
type BenchmarkConfig struct {
	Host     string
	APIKey   string
	Chain    string
	RPS      int
	Duration time.Duration
	Senders  int
}

// greetingTargets pre-generates one target per sender. Senders rotate so a
// run with cooldown enabled only blocks repeats.
func greetingTargets(cfg BenchmarkConfig, runID int64) ([]vegeta.Target, error) {
	n := cfg.Senders
	if n <= 0 {
		n = 1
	}
	header := http.Header{"Content-Type": {"application/json"}}
	if cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	url := strings.TrimRight(cfg.Host, "/") + "/v1/greetings"

	targets := make([]vegeta.Target, 0, n)
	for i := 0; i < n; i++ {
		body, err := json.Marshal(map[string]any{
			"chain":     cfg.Chain,
			"sender":    fmt.Sprintf("bench-%d-%d", runID, i),
			"recipient": fmt.Sprintf("bench-%d-%d", runID, (i+1)%n),
			"content":   map[string]string{"kind": "text", "payload": "gm"},
		})
		if err != nil {
			return nil, err
		}
		targets = append(targets, vegeta.Target{Method: http.MethodPost, URL: url, Body: body, Header: header})
	}
	return targets, nil
}

type benchReport struct {
	Requests    uint64         `yaml:"requests"`
	Success     float64        `yaml:"success_ratio"`
	Throughput  float64        `yaml:"throughput_rps"`
	Mean        time.Duration  `yaml:"latency_mean"`
	P50         time.Duration  `yaml:"latency_p50"`
	P95         time.Duration  `yaml:"latency_p95"`
	P99         time.Duration  `yaml:"latency_p99"`
	Max         time.Duration  `yaml:"latency_max"`
	BytesIn     uint64         `yaml:"bytes_in"`
	StatusCodes map[string]int `yaml:"status_codes"`
	Errors      []string       `yaml:"errors,omitempty"`
}

func (r benchReport) header() []string { return []string{"METRIC", "VALUE"} }

func (r benchReport) rows() [][]string {
	out := [][]string{
		{"requests", humanize.Comma(int64(r.Requests))},
		{"success", strconv.FormatFloat(r.Success*100, 'f', 2, 64) + "%"},
		{"throughput", strconv.FormatFloat(r.Throughput, 'f', 1, 64) + " req/s"},
		{"latency mean", r.Mean.String()},
		{"latency p50", r.P50.String()},
		{"latency p95", r.P95.String()},
		{"latency p99", r.P99.String()},
		{"latency max", r.Max.String()},
		{"bytes in", humanize.IBytes(r.BytesIn)},
	}
	codes := make([]string, 0, len(r.StatusCodes))
	for c := range r.StatusCodes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	for _, c := range codes {
		out = append(out, []string{"status " + c, strconv.Itoa(r.StatusCodes[c])})
	}
	for _, e := range r.Errors {
		out = append(out, []string{"error", e})
	}
	return out
}

// runBenchmark attacks the server at a constant rate and summarizes the
// results.
func runBenchmark(cfg BenchmarkConfig) (benchReport, error) {
	if cfg.RPS <= 0 || cfg.Duration <= 0 {
		return benchReport{}, fmt.Errorf("rps and duration must be positive")
	}
	targets, err := greetingTargets(cfg, time.Now().UnixNano())
	if err != nil {
		return benchReport{}, err
	}

	targeter := vegeta.NewStaticTargeter(targets...)
	rate := vegeta.Rate{Freq: cfg.RPS, Per: time.Second}
	attacker := vegeta.NewAttacker(vegeta.Workers(uint64(runtime.NumCPU())))

	var m vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, cfg.Duration, "greetings") {
		m.Add(res)
	}
	m.Close()

	return benchReport{
		Requests:    m.Requests,
		Success:     m.Success,
		Throughput:  m.Throughput,
		Mean:        m.Latencies.Mean,
		P50:         m.Latencies.P50,
		P95:         m.Latencies.P95,
		P99:         m.Latencies.P99,
		Max:         m.Latencies.Max,
		BytesIn:     m.BytesIn.Total,
		StatusCodes: m.StatusCodes,
		Errors:      m.Errors,
	}, nil
}

func newBenchCmd() *cobra.Command {
	var bc BenchmarkConfig
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load-test greeting ingestion on a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("host") {
				bc.Host = cfg.Host
			}
			if !cmd.Flags().Changed("api-key") {
				bc.APIKey = cfg.APIKey
			}
			rep, err := runBenchmark(bc)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, rep)
		},
	}
	cmd.Flags().StringVar(&bc.Host, "host", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&bc.APIKey, "api-key", "", "API key sent as a bearer token")
	cmd.Flags().StringVar(&bc.Chain, "chain", "bench", "chain to greet on")
	cmd.Flags().IntVar(&bc.RPS, "rps", 100, "requests per second")
	cmd.Flags().DurationVar(&bc.Duration, "duration", 10*time.Second, "run length")
	cmd.Flags().IntVar(&bc.Senders, "senders", 1000, "distinct sender identities")
	return cmd
}
