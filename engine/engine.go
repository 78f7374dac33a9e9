// Package engine owns the live flow table: folding incoming packets into
// flow.Record entries, expiring flows on FIN or timeout, and reporting
// aggregate throughput statistics.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/alonsoveliz1/layton/flow"
	"github.com/alonsoveliz1/layton/printer"
)

const (
	expireInterval = 1 * time.Second
	statsInterval  = 1 * time.Second
)

// Stats is a point-in-time snapshot of pipeline throughput.
type Stats struct {
	FlowCount       int
	PacketsPerSec   float64
	BytesPerSec     float64
	TotalPackets    uint64
	TotalBytes      uint64
	UptimeSeconds   float64
}

// Engine consumes decoded packets, maintains the flow table, and emits
// completed flows for classification.
type Engine struct {
	packets <-chan flow.Packet
	done    chan flow.Record

	mu    sync.Mutex
	table map[flow.Key]*flow.Record

	startTime     time.Time
	lastStatsTime time.Time
	periodPackets uint64
	periodBytes   uint64
	totalPackets  uint64
	totalBytes    uint64

	statsMu  sync.Mutex
	stats    Stats
	statsOut chan Stats
}

// New builds an Engine reading packets from in. Its Done channel
// delivers every flow as it closes (FIN seen or timed out); the caller
// is expected to forward each to the classifier and then discard it.
func New(in <-chan flow.Packet) *Engine {
	now := time.Now()
	return &Engine{
		packets:       in,
		done:          make(chan flow.Record, 256),
		table:         make(map[flow.Key]*flow.Record),
		startTime:     now,
		lastStatsTime: now,
		statsOut:      make(chan Stats, 1),
	}
}

// Done returns the channel of flows that have finished (closed or expired).
func (e *Engine) Done() <-chan flow.Record {
	return e.done
}

// StatsChan returns a channel that receives the latest throughput
// snapshot every time it is recomputed. Sends are coalescing: a slow
// reader only ever sees the most recent snapshot.
func (e *Engine) StatsChan() <-chan Stats {
	return e.statsOut
}

// Run drives the engine's processing loop until ctx is cancelled or the
// packet channel closes. It blocks, so callers should run it in its own
// goroutine.
func (e *Engine) Run(ctx context.Context) {
	expireTicker := time.NewTicker(expireInterval)
	defer expireTicker.Stop()
	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()
	defer close(e.done)
	defer close(e.statsOut)

	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-e.packets:
			if !ok {
				return
			}
			e.ingest(pkt)
		case <-expireTicker.C:
			e.sweepExpired(uint64(time.Now().UnixMicro()))
		case <-statsTicker.C:
			e.recomputeStats()
		}
	}
}

func (e *Engine) ingest(pkt flow.Packet) {
	e.mu.Lock()
	record, exists := e.table[pkt.Key]
	if !exists {
		record = flow.New(pkt)
		e.table[pkt.Key] = record
	} else {
		record.Update(pkt)
	}
	terminate := record.ShouldTerminate(pkt.TimestampMicros, pkt.HasFlag(flow.FlagFIN))
	if terminate {
		delete(e.table, pkt.Key)
	}
	e.totalPackets++
	e.totalBytes += uint64(pkt.PayloadLen)
	e.periodPackets++
	e.periodBytes += uint64(pkt.PayloadLen)
	e.mu.Unlock()

	if terminate {
		record.Status = flow.StatusClosed
		e.emit(*record)
	}
}

func (e *Engine) emit(r flow.Record) {
	select {
	case e.done <- r:
	default:
		printer.Warningf("dropping completed flow %s: classifier backlog full\n", r.Key)
	}
}

// sweepExpired evicts every flow that has exceeded the flow timeout and
// emits it downstream. Iterating and deleting from the same map is safe
// in Go, unlike the two-phase collect-then-delete pattern required in
// languages without that guarantee.
func (e *Engine) sweepExpired(nowMicros uint64) {
	var expired []flow.Record

	e.mu.Lock()
	for key, record := range e.table {
		if record.IsStale(nowMicros) {
			delete(e.table, key)
			record.Status = flow.StatusExpired
			expired = append(expired, *record)
		}
	}
	e.mu.Unlock()

	for _, r := range expired {
		e.emit(r)
	}
}

// minDT guards against a near-zero elapsed interval producing a bogus
// divide-by-huge-number rate spike.
const minDT = 1e-6

func (e *Engine) recomputeStats() {
	now := time.Now()

	e.mu.Lock()
	flowCount := len(e.table)
	totalPackets := e.totalPackets
	totalBytes := e.totalBytes
	periodPackets := e.periodPackets
	periodBytes := e.periodBytes
	e.periodPackets = 0
	e.periodBytes = 0
	e.mu.Unlock()

	dt := now.Sub(e.lastStatsTime).Seconds()
	if dt < minDT {
		dt = minDT
	}

	snapshot := Stats{
		FlowCount:     flowCount,
		PacketsPerSec: float64(periodPackets) / dt,
		BytesPerSec:   float64(periodBytes) / dt,
		TotalPackets:  totalPackets,
		TotalBytes:    totalBytes,
		UptimeSeconds: now.Sub(e.startTime).Seconds(),
	}

	e.statsMu.Lock()
	e.stats = snapshot
	e.statsMu.Unlock()

	e.lastStatsTime = now
	e.pushStats(snapshot)
}

// pushStats delivers snapshot to statsOut without blocking, dropping and
// replacing a stale unread value rather than backing up the engine loop.
func (e *Engine) pushStats(snapshot Stats) {
	select {
	case e.statsOut <- snapshot:
		return
	default:
	}
	select {
	case <-e.statsOut:
	default:
	}
	select {
	case e.statsOut <- snapshot:
	default:
	}
}

// Stats returns the most recently computed throughput snapshot.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// ActiveFlowCount reports the number of flows currently tracked.
func (e *Engine) ActiveFlowCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.table)
}
