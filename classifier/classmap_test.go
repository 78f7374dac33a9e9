package classifier

import (
	"os"
	"path/filepath"
	"testing"
)

func writeClassMap(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "class_map.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write class map fixture: %v", err)
	}
	return path
}

func TestLoadLabelVectorFillsGapsWithUnknown(t *testing.T) {
	path := writeClassMap(t, `{"num_classes": 4, "id_to_label": {"0": "Benign", "2": "DDoS"}}`)

	labels, err := LoadLabelVector(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels.NumClasses() != 4 {
		t.Fatalf("expected 4 classes, got %d", labels.NumClasses())
	}
	if labels.Label(0) != "Benign" {
		t.Fatalf("expected index 0 to be Benign, got %s", labels.Label(0))
	}
	if labels.Label(1) != unknownLabel {
		t.Fatalf("expected unfilled index 1 to default to Unknown, got %s", labels.Label(1))
	}
	if labels.Label(2) != "DDoS" {
		t.Fatalf("expected index 2 to be DDoS, got %s", labels.Label(2))
	}
}

func TestLoadLabelVectorOutOfRangeReturnsUnknown(t *testing.T) {
	path := writeClassMap(t, `{"num_classes": 2, "id_to_label": {"0": "Benign", "1": "PortScan"}}`)

	labels, err := LoadLabelVector(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels.Label(99) != unknownLabel {
		t.Fatalf("expected out-of-range index to default to Unknown, got %s", labels.Label(99))
	}
}
