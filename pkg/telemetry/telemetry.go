// Package telemetry times operations into Prometheus and, when Init has been
// called, also appends per-operation traces as JSON lines under a directory.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Step struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration_ms"`
}

type Trace struct {
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	Steps    []Step    `json:"steps"`
	TotalMS  float64   `json:"total_ms"`
	lastMark time.Time
	done     bool
	tel      *Telemetry
}

// Telemetry writes finished traces to <dir>/<op>.jsonl in the background.
type Telemetry struct {
	dir      string
	mu       sync.Mutex
	files    map[string]*os.File
	buffers  map[string]*bufio.Writer
	traces   chan *Trace
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	flushInt time.Duration
	maxSize  int64
	bufSize  int
}

var (
	globalMu sync.RWMutex
	tel      *Telemetry
)

// Init enables trace files for the process-wide Track.
func Init(dir string, bufferSize, queueCapacity int, flushInterval time.Duration, maxFileSize int64) error {
	t, err := New(dir, bufferSize, queueCapacity, flushInterval, maxFileSize)
	if err != nil {
		return err
	}
	globalMu.Lock()
	tel = t
	globalMu.Unlock()
	return nil
}

// Track starts a trace. Without Init it only feeds the histogram.
func Track(name string) *Trace {
	globalMu.RLock()
	t := tel
	globalMu.RUnlock()
	now := time.Now()
	return &Trace{Name: name, Start: now, lastMark: now, tel: t}
}

// Close stops the process-wide trace writer.
func Close() {
	globalMu.Lock()
	t := tel
	tel = nil
	globalMu.Unlock()
	if t != nil {
		t.Close()
	}
}

func New(dir string, bufferSize, queueCapacity int, flushInterval time.Duration, maxFileSize int64) (*Telemetry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	t := &Telemetry{
		dir:      dir,
		files:    make(map[string]*os.File),
		buffers:  make(map[string]*bufio.Writer),
		traces:   make(chan *Trace, queueCapacity),
		stopCh:   make(chan struct{}),
		flushInt: flushInterval,
		maxSize:  maxFileSize,
		bufSize:  bufferSize,
	}
	t.wg.Add(1)
	go t.writerLoop()
	return t, nil
}

// Mark records the time since the previous mark under label.
func (tr *Trace) Mark(label string) {
	now := time.Now()
	tr.Steps = append(tr.Steps, Step{Name: label, Duration: now.Sub(tr.lastMark).Seconds() * 1000})
	tr.lastMark = now
}

// Finish observes the total duration and queues the trace. Safe to call
// more than once.
func (tr *Trace) Finish() {
	if tr.done {
		return
	}
	tr.done = true
	elapsed := time.Since(tr.Start)
	opDuration.WithLabelValues(tr.Name).Observe(elapsed.Seconds())
	if tr.tel == nil {
		return
	}
	tr.TotalMS = elapsed.Seconds() * 1000
	var sum float64
	for _, s := range tr.Steps {
		sum += s.Duration
	}
	if rest := tr.TotalMS - sum; rest > 0.001 {
		tr.Steps = append(tr.Steps, Step{Name: "unmarked", Duration: rest})
	}
	select {
	case tr.tel.traces <- tr:
	default:
		// queue full, drop
	}
	tr.tel = nil
}

func (t *Telemetry) writerLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.flushInt)
	defer ticker.Stop()

	for {
		select {
		case tr := <-t.traces:
			t.write(tr)
		case <-ticker.C:
			t.flush()
		case <-t.stopCh:
			for {
				select {
				case tr := <-t.traces:
					t.write(tr)
					continue
				default:
				}
				break
			}
			t.mu.Lock()
			for _, b := range t.buffers {
				b.Flush()
			}
			for _, f := range t.files {
				f.Sync()
				f.Close()
			}
			t.mu.Unlock()
			return
		}
	}
}

func (t *Telemetry) write(tr *Trace) {
	data, err := json.Marshal(tr)
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.bufferFor(tr.Name)
	b.Write(data)
	b.WriteByte('\n')
}

// flush writes buffers out and truncates files grown past maxSize.
func (t *Telemetry) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, b := range t.buffers {
		b.Flush()
		f := t.files[name]
		if f == nil || t.maxSize <= 0 {
			continue
		}
		fi, err := f.Stat()
		if err != nil || fi.Size() <= t.maxSize {
			continue
		}
		f.Close()
		nf, err := os.OpenFile(f.Name(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			delete(t.files, name)
			delete(t.buffers, name)
			continue
		}
		t.files[name] = nf
		t.buffers[name] = bufio.NewWriterSize(nf, t.bufSize)
		fmt.Fprintf(os.Stderr, "telemetry: truncated %s (over %d bytes)\n", name, t.maxSize)
	}
}

func (t *Telemetry) bufferFor(op string) *bufio.Writer {
	if b, ok := t.buffers[op]; ok {
		return b
	}
	path := filepath.Join(t.dir, op+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: failed to open %s: %v\n", path, err)
		return bufio.NewWriter(os.Stderr)
	}
	b := bufio.NewWriterSize(f, t.bufSize)
	t.files[op] = f
	t.buffers[op] = b
	return b
}

// Close drains queued traces and closes every file.
func (t *Telemetry) Close() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		t.wg.Wait()
	})
}
