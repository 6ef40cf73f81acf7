// Package sensor watches disk usage of the volume holding the database and
// logs when it crosses the configured watermarks.
package sensor

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/wuya51/gmic-buildathon/pkg/logger"
)

var (
	diskUsedPct = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gmstats_disk_used_percent",
		Help: "Used space on the database volume, in percent.",
	})
	dbSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gmstats_db_size_bytes",
		Help: "On-disk size of the database.",
	})
)

func init() {
	prometheus.MustRegister(diskUsedPct)
	prometheus.MustRegister(dbSizeBytes)
}

type Config struct {
	Path         string
	PollInterval time.Duration
	DiskHighPct  int
	DiskLowPct   int
	// DBSize, when set, reports the database's own disk usage.
	DBSize func() uint64
}

type Sensor struct {
	cfg       Config
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	mu        sync.Mutex
	diskAlert bool
}

func New(cfg Config) *Sensor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	return &Sensor{cfg: cfg, stopCh: make(chan struct{})}
}

func (s *Sensor) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop ends the poll loop and waits for it.
func (s *Sensor) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Sensor) run() {
	defer s.wg.Done()
	s.Check()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Check()
		case <-s.stopCh:
			return
		}
	}
}

// Check takes one reading.
func (s *Sensor) Check() {
	if s.cfg.DBSize != nil {
		dbSizeBytes.Set(float64(s.cfg.DBSize()))
	}
	if s.cfg.Path == "" {
		return
	}
	used, total, err := DiskUsage(s.cfg.Path)
	if err != nil {
		logger.Warn("disk_stat_failed", "path", s.cfg.Path, "error", err)
		return
	}
	if total == 0 {
		return
	}
	pct := float64(used) / float64(total) * 100
	diskUsedPct.Set(pct)
	s.observe(pct, used, total)
}

// observe flips the alert on above the high watermark and off below the
// low one.
func (s *Sensor) observe(pct float64, used, total uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case pct > float64(s.cfg.DiskHighPct) && !s.diskAlert:
		s.diskAlert = true
		logger.Warn("disk_usage_high", "used_pct", pct, "used", humanize.IBytes(used), "total", humanize.IBytes(total), "threshold", s.cfg.DiskHighPct)
	case pct < float64(s.cfg.DiskLowPct) && s.diskAlert:
		s.diskAlert = false
		logger.Info("disk_usage_recovered", "used_pct", pct, "threshold", s.cfg.DiskLowPct)
	}
	return s.diskAlert
}

// Alerting reports whether disk usage is currently above the watermark.
func (s *Sensor) Alerting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diskAlert
}

// DiskUsage returns used and total bytes of the filesystem holding path.
func DiskUsage(path string) (used, total uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	total = st.Blocks * uint64(st.Bsize)
	avail := st.Bavail * uint64(st.Bsize)
	return total - avail, total, nil
}
