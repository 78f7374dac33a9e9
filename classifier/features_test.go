package classifier

import (
	"math"
	"testing"
)

func TestAsF32SanitizesInfAndNaN(t *testing.T) {
	if got := asF32(math.Inf(1)); got != 0 {
		t.Fatalf("expected +Inf to sanitize to 0, got %v", got)
	}
	if got := asF32(math.Inf(-1)); got != 0 {
		t.Fatalf("expected -Inf to sanitize to 0, got %v", got)
	}
	if got := asF32(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to sanitize to 0, got %v", got)
	}
	if got := asF32(42.5); got != 42.5 {
		t.Fatalf("expected finite value to pass through, got %v", got)
	}
}

func TestExtractL1ProducesFullWidthVector(t *testing.T) {
	r := newTestRecord()
	feats := ExtractL1(r)
	if len(feats) != FeatureL1Count {
		t.Fatalf("expected %d features, got %d", FeatureL1Count, len(feats))
	}
}

func TestExtractL2ProducesFullWidthVector(t *testing.T) {
	r := newTestRecord()
	feats := ExtractL2(r)
	if len(feats) != FeatureL2Count {
		t.Fatalf("expected %d features, got %d", FeatureL2Count, len(feats))
	}
}

func TestExtractL1NeverUnintializedSegSizeMin(t *testing.T) {
	r := newTestRecord()
	feats := ExtractL1(r)
	if math.IsInf(float64(feats[43]), 0) {
		t.Fatalf("expected fwd_seg_size_min to be sanitized away from +Inf")
	}
}
