// Package nids wires capture, the flow engine, the classifier, and the
// stats publisher into one runnable pipeline, and exposes it over HTTP
// and Prometheus.
package nids

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alonsoveliz1/layton/capture"
	"github.com/alonsoveliz1/layton/cfg"
	"github.com/alonsoveliz1/layton/classifier"
	"github.com/alonsoveliz1/layton/engine"
	"github.com/alonsoveliz1/layton/nids/metrics"
	"github.com/alonsoveliz1/layton/printer"
	"github.com/alonsoveliz1/layton/publisher"
	"github.com/alonsoveliz1/layton/telemetry"
	"github.com/alonsoveliz1/layton/util"
)

const (
	binaryModelFile     = "l1_model.onnx"
	multiclassModelFile = "l2_multiclass.onnx"
	classMapFile        = "class_map.json"
)

// ClassifiedFlowEvent is the shape every classified flow is logged as,
// and what Events() delivers to in-process subscribers.
type ClassifiedFlowEvent struct {
	RunID        string    `json:"run_id"`
	FlowKey      string    `json:"flow_key"`
	StartUs      uint64    `json:"start_us"`
	EndUs        uint64    `json:"end_us"`
	DurationUs   uint64    `json:"duration_us"`
	TotalPackets uint64    `json:"total_packets"`
	TotalBytes   uint64    `json:"total_bytes"`
	IsAttack     bool      `json:"is_attack"`
	PAttack      float32   `json:"p_attack"`
	MultiClass   *uint8    `json:"multi_class,omitempty"`
	MultiLabel   string    `json:"multi_label,omitempty"`
	MultiProbs   []float32 `json:"multi_probs,omitempty"`
}

// Pipeline owns one end-to-end capture->engine->classifier->publisher
// run. It is safe to Start and Stop repeatedly; Stop is idempotent.
type Pipeline struct {
	registry *prometheus.Registry

	modelOnce sync.Once
	model     *classifier.Model
	labels    classifier.LabelVector
	modelErr  error

	mu      sync.Mutex
	running bool
	runID   string
	cancel  context.CancelFunc
	source  *capture.Source
	eng     *engine.Engine
	events  chan ClassifiedFlowEvent
}

// NewPipeline builds a Pipeline ready to Start. Classifier models are
// resolved lazily on first Start, not here: a bad or missing model
// directory shouldn't prevent constructing the pipeline, only prevent
// flows from being classified once running.
func NewPipeline() (*Pipeline, error) {
	return &Pipeline{registry: metrics.NewRegistry()}, nil
}

// loadModel resolves the classifier models from cfg.ModelDir() the first
// time it's called. A failure here is recorded, not fatal: Start still
// brings up capture, the engine, and the publisher, just without a
// classifier goroutine consuming finished flows.
func (p *Pipeline) loadModel() {
	p.modelOnce.Do(func() {
		dir := cfg.ModelDir()

		labels, err := classifier.LoadLabelVector(filepath.Join(dir, classMapFile))
		if err != nil {
			p.modelErr = fmt.Errorf("load class map: %w", err)
			return
		}

		model, err := classifier.LoadModel(
			filepath.Join(dir, binaryModelFile),
			filepath.Join(dir, multiclassModelFile),
			labels.NumClasses(),
		)
		if err != nil {
			p.modelErr = fmt.Errorf("load classifier models: %w", err)
			return
		}

		p.model = model
		p.labels = labels
	})
}

// RunID returns the correlation ID of the current or most recent run, or
// the empty string if the pipeline has never been started.
func (p *Pipeline) RunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runID
}

// Stats returns the most recent throughput snapshot, or the zero value
// if the pipeline isn't running.
func (p *Pipeline) Stats() engine.Stats {
	p.mu.Lock()
	eng := p.eng
	p.mu.Unlock()
	if eng == nil {
		return engine.Stats{}
	}
	return eng.Stats()
}

// Events returns a channel of every flow the classifier finishes
// evaluating, for in-process subscribers (e.g. a console printer). It
// is only valid while the pipeline is running.
func (p *Pipeline) Events() <-chan ClassifiedFlowEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events
}

// Start opens interfaceName for capture and starts the engine,
// classifier, and publisher goroutines. Calling Start while already
// running is a no-op.
func (p *Pipeline) Start(ctx context.Context, interfaceName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	source, packets, err := capture.Open(interfaceName)
	if err != nil {
		return fmt.Errorf("open capture on %s: %w", interfaceName, err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	eng := engine.New(packets)
	pub := publisher.New(eng.StatsChan())
	events := make(chan ClassifiedFlowEvent, 256)

	runID := util.RandomRunID()

	go eng.Run(runCtx)
	go pub.Run(runCtx)
	go p.forwardStats(runCtx, pub)

	p.loadModel()
	if p.modelErr != nil {
		telemetry.RateLimitError("load classifier models", p.modelErr)
		close(events)
	} else {
		dispatcher := classifier.NewDispatcher(p.model, eng.Done())
		go dispatcher.Run()
		go p.forwardClassified(runID, dispatcher.Out(), events)
	}

	p.source = source
	p.eng = eng
	p.cancel = cancel
	p.runID = runID
	p.events = events
	p.running = true

	printer.Infof("started capture on %s (run %s)\n", interfaceName, runID)
	return nil
}

// Stop halts capture and every downstream goroutine. Calling Stop when
// not running is a no-op.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.source.Close()
	p.cancel()
	p.running = false

	printer.Infof("stopped capture (run %s)\n", p.runID)
}

// forwardStats keeps the active-flows gauge current and folds each
// snapshot's cumulative packet/byte totals into the capture-throughput
// counters. The publisher already owns the emission throttling; this
// just translates its coalesced snapshots into Prometheus updates.
func (p *Pipeline) forwardStats(ctx context.Context, pub *publisher.Publisher) {
	var lastPackets, lastBytes uint64

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-pub.Out():
			if !ok {
				return
			}
			metrics.FlowsActive.Set(float64(s.FlowCount))

			if s.TotalPackets >= lastPackets {
				metrics.PacketsTotal.Add(float64(s.TotalPackets - lastPackets))
			}
			if s.TotalBytes >= lastBytes {
				metrics.BytesTotal.Add(float64(s.TotalBytes - lastBytes))
			}
			lastPackets = s.TotalPackets
			lastBytes = s.TotalBytes
		}
	}
}

// forwardClassified turns each classifier verdict into a logged,
// metric-recorded event and fans it out to subscribers.
func (p *Pipeline) forwardClassified(runID string, in <-chan classifier.Classified, out chan<- ClassifiedFlowEvent) {
	defer close(out)

	for c := range in {
		metrics.FlowsClassifiedTotal.Inc()
		metrics.ClassificationSeconds.WithLabelValues("binary").Observe(c.Result.Binary.Elapsed.Seconds())

		if c.Result.Multi != nil {
			printer.V(2).Debugf("flow %s classified: bin=%s multi=%s\n", c.Flow.Key,
				c.Result.Binary.Elapsed, c.Result.Multi.Elapsed)
		} else {
			printer.V(2).Debugf("flow %s classified: bin=%s\n", c.Flow.Key, c.Result.Binary.Elapsed)
		}

		event := ClassifiedFlowEvent{
			RunID:        runID,
			FlowKey:      c.Flow.Key.String(),
			StartUs:      c.Flow.StartTimeMicros,
			EndUs:        c.Flow.LastTimeMicros,
			DurationUs:   c.Flow.DurationMicros,
			TotalPackets: c.Flow.TotalPackets,
			TotalBytes:   c.Flow.TotalBytes,
			IsAttack:     c.Result.Binary.PredLabel == 1,
		}
		if len(c.Result.Binary.Probs) > 1 {
			event.PAttack = c.Result.Binary.Probs[1]
		}
		if c.Result.Multi != nil {
			metrics.FlowsAttackTotal.Inc()
			metrics.ClassificationSeconds.WithLabelValues("multiclass").Observe(c.Result.Multi.Elapsed.Seconds())
			label := c.Result.Multi.PredLabel
			event.MultiClass = &label
			event.MultiLabel = p.labels.Label(label)
			event.MultiProbs = c.Result.Multi.Probs
		}

		if encoded, err := json.Marshal(event); err != nil {
			telemetry.RateLimitError("encode classified flow event", err)
		} else {
			printer.Infof("%s\n", encoded)
		}

		select {
		case out <- event:
		default:
			printer.Warningf("dropping classified flow event for %s: subscriber backlog full\n", event.FlowKey)
		}
	}
}

func (p *Pipeline) metricsHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
