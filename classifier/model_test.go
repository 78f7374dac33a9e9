package classifier

import (
	"testing"

	"github.com/alonsoveliz1/layton/flow"
)

type fakeRunner struct {
	probs []float32
	err   error
}

func (f *fakeRunner) run(features []float32) ([]float32, error) {
	return f.probs, f.err
}

func newTestRecord() *flow.Record {
	pkt := flow.Packet{
		TimestampMicros: 1_000_000,
		Key:             flow.NewKey(0x0A000001, 0x0A000002, 51000, 443, 6),
		SrcIP:           0x0A000001,
		SrcPort:         51000,
		TotalLen:        60,
		PayloadLen:      0,
		HeaderLen:       40,
		TCPFlags:        flow.FlagSYN,
		WindowSize:      65535,
	}
	return flow.New(pkt)
}

func TestClassifyFlowSkipsMulticlassWhenBenign(t *testing.T) {
	m := &Model{
		binary:     &fakeRunner{probs: []float32{0.9, 0.1}},
		multiclass: &fakeRunner{probs: []float32{1, 0, 0}},
	}

	result, err := m.ClassifyFlow(newTestRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Binary.PredLabel != 0 {
		t.Fatalf("expected benign label, got %d", result.Binary.PredLabel)
	}
	if result.Multi != nil {
		t.Fatalf("expected multiclass to be skipped for a benign flow")
	}
}

func TestClassifyFlowRunsMulticlassWhenAttack(t *testing.T) {
	m := &Model{
		binary:     &fakeRunner{probs: []float32{0.1, 0.9}},
		multiclass: &fakeRunner{probs: []float32{0.1, 0.2, 0.7, 0.0}},
	}

	result, err := m.ClassifyFlow(newTestRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Binary.PredLabel != 1 {
		t.Fatalf("expected attack label, got %d", result.Binary.PredLabel)
	}
	if result.Multi == nil {
		t.Fatalf("expected multiclass result for an attack flow")
	}
	if result.Multi.PredLabel != 2 {
		t.Fatalf("expected argmax index 2, got %d", result.Multi.PredLabel)
	}
}

func TestArgmaxTiesPickLowestIndex(t *testing.T) {
	got := argmax([]float32{0.5, 0.5, 0.1})
	if got != 0 {
		t.Fatalf("expected tie to resolve to lowest index 0, got %d", got)
	}
}

func TestAttackThresholdIsExactBoundary(t *testing.T) {
	m := &Model{
		binary:     &fakeRunner{probs: []float32{1 - AttackThreshold, AttackThreshold}},
		multiclass: &fakeRunner{probs: []float32{1}},
	}
	result, err := m.ClassifyFlow(newTestRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Binary.PredLabel != 1 {
		t.Fatalf("expected probability exactly at threshold to count as an attack")
	}
}
