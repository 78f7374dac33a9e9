package classifier

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// unknownLabel is substituted for any multiclass index the class map
// doesn't cover, so a model/map mismatch degrades gracefully instead of
// panicking on an out-of-range lookup.
const unknownLabel = "Unknown"

type classMapFile struct {
	NumClasses int               `json:"num_classes"`
	IDToLabel  map[string]string `json:"id_to_label"`
}

// LabelVector is a dense index->label lookup built from class_map.json,
// defaulting every unfilled slot to "Unknown".
type LabelVector []string

// LoadLabelVector reads class_map.json and expands its sparse id->label
// map into a dense vector sized to NumClasses.
func LoadLabelVector(path string) (LabelVector, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read class map %s", path)
	}

	var m classMapFile
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "parse class map %s", path)
	}

	size := m.NumClasses
	if size < 1 {
		size = 1
	}
	labels := make(LabelVector, size)
	for i := range labels {
		labels[i] = unknownLabel
	}
	for k, v := range m.IDToLabel {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= len(labels) {
			continue
		}
		labels[idx] = v
	}
	return labels, nil
}

// Label returns the label for idx, or "Unknown" if out of range.
func (v LabelVector) Label(idx uint8) string {
	if int(idx) >= len(v) {
		return unknownLabel
	}
	return v[idx]
}

// NumClasses reports how many classes the multiclass model was trained
// against, per the loaded map.
func (v LabelVector) NumClasses() int {
	return len(v)
}
