package nids

import (
	"testing"
	"time"

	"github.com/alonsoveliz1/layton/classifier"
	"github.com/alonsoveliz1/layton/flow"
)

func TestPipelineStopBeforeStartIsNoop(t *testing.T) {
	p := &Pipeline{}
	p.Stop() // must not panic or block
	if p.RunID() != "" {
		t.Fatalf("expected empty run ID before Start, got %q", p.RunID())
	}
}

func TestPipelineStatsBeforeStartIsZero(t *testing.T) {
	p := &Pipeline{}
	s := p.Stats()
	if s.FlowCount != 0 || s.TotalPackets != 0 {
		t.Fatalf("expected zero-value stats before Start, got %+v", s)
	}
}

func TestForwardClassifiedEmitsEventForBenignFlow(t *testing.T) {
	p := &Pipeline{labels: classifier.LabelVector{"Unknown"}}

	in := make(chan classifier.Classified, 1)
	out := make(chan ClassifiedFlowEvent, 1)

	rec := flow.Record{
		Key:             flow.NewKey(1, 2, 80, 443, 6),
		StartTimeMicros: 1_000,
		LastTimeMicros:  2_000,
		DurationMicros:  1_000,
		TotalPackets:    5,
		TotalBytes:      500,
	}
	in <- classifier.Classified{
		Flow: rec,
		Result: classifier.Result{
			Binary: classifier.Inference{PredLabel: 0, Probs: []float32{0.9, 0.1}},
		},
	}
	close(in)

	p.forwardClassified("run-1", in, out)

	select {
	case ev := <-out:
		if ev.IsAttack {
			t.Fatalf("expected benign flow, got IsAttack=true")
		}
		if ev.MultiClass != nil {
			t.Fatalf("expected no multiclass verdict for a benign flow")
		}
		if ev.RunID != "run-1" {
			t.Fatalf("expected run ID to be threaded through, got %q", ev.RunID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a classified flow event")
	}
}

func TestForwardClassifiedEmitsMulticlassForAttackFlow(t *testing.T) {
	p := &Pipeline{labels: classifier.LabelVector{"Benign", "DoS", "PortScan"}}

	in := make(chan classifier.Classified, 1)
	out := make(chan ClassifiedFlowEvent, 1)

	rec := flow.Record{Key: flow.NewKey(1, 2, 80, 443, 6)}
	multi := classifier.Inference{PredLabel: 2, Probs: []float32{0.1, 0.2, 0.7}}
	in <- classifier.Classified{
		Flow: rec,
		Result: classifier.Result{
			Binary: classifier.Inference{PredLabel: 1, Probs: []float32{0.1, 0.9}},
			Multi:  &multi,
		},
	}
	close(in)

	p.forwardClassified("run-2", in, out)

	ev := <-out
	if !ev.IsAttack {
		t.Fatal("expected attack flow")
	}
	if ev.MultiClass == nil || *ev.MultiClass != 2 {
		t.Fatalf("expected multiclass label 2, got %v", ev.MultiClass)
	}
	if ev.MultiLabel != "PortScan" {
		t.Fatalf("expected label PortScan, got %q", ev.MultiLabel)
	}
}
