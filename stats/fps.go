// Package stats tracks the frame rate of the inference loop.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// historySize bounds the number of past rate readings kept for averaging.
const historySize = 100

// Meter counts ingested frames and recomputes the frame rate on a fixed
// interval in a background goroutine. Safe for concurrent use.
type Meter struct {
	interval time.Duration
	count    atomic.Uint64
	total    atomic.Uint64
	started  time.Time

	mu      sync.RWMutex
	rate    float64
	history []float64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMeter starts a meter that recomputes the rate every interval.
func NewMeter(interval time.Duration) *Meter {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	m := &Meter{
		interval: interval,
		started:  time.Now(),
		stop:     make(chan struct{}),
	}

	go m.run()
	return m
}

// Tick records one ingested frame.
func (m *Meter) Tick() {
	m.count.Add(1)
	m.total.Add(1)
}

// Rate returns the most recently computed frames per second.
func (m *Meter) Rate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rate
}

// Avg returns the average of the recent rate readings.
func (m *Meter) Avg() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.history) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range m.history {
		sum += r
	}
	return sum / float64(len(m.history))
}

// Frames returns the total number of frames seen.
func (m *Meter) Frames() uint64 {
	return m.total.Load()
}

// Uptime returns the time since the meter was started.
func (m *Meter) Uptime() time.Duration {
	return time.Since(m.started)
}

// Stop halts the background recomputation.
func (m *Meter) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Meter) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stop:
			return
		}
	}
}

// sample folds the frame count since the last sample into a new rate
// reading and resets the count.
func (m *Meter) sample() {
	count := m.count.Swap(0)
	rate := float64(count) / m.interval.Seconds()

	m.mu.Lock()
	m.rate = rate
	m.history = append(m.history, rate)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	m.mu.Unlock()
}
