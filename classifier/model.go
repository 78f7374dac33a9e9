package classifier

import (
	"fmt"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/alonsoveliz1/layton/flow"
)

// AttackThreshold is the binary model's decision boundary: a flow is
// labeled an attack once its predicted attack probability reaches this.
const AttackThreshold float32 = 0.85

// Inference is one model run's raw output plus how long it took.
type Inference struct {
	PredLabel uint8
	Probs     []float32
	Elapsed   time.Duration
}

// Result bundles the binary verdict with the multiclass breakdown, which
// is only populated when the binary model called the flow an attack.
type Result struct {
	Binary Inference
	Multi  *Inference
}

var (
	envOnce sync.Once
	envErr  error
)

func ensureEnvironment() error {
	envOnce.Do(func() {
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// onnxSession wraps a single fixed-shape ONNX session: one (1, featureCount)
// input tensor and one (1, outputCount) output tensor, reused across runs.
type onnxSession struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func newONNXSession(path string, featureCount, outputCount int) (*onnxSession, error) {
	if err := ensureEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(featureCount)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor for %s: %w", path, err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(outputCount)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor for %s: %w", path, err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session options for %s: %w", path, err)
	}
	defer options.Destroy()
	_ = options.SetIntraOpNumThreads(1)
	_ = options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll)

	session, err := ort.NewAdvancedSession(path,
		[]string{"input"}, []string{"output"},
		[]ort.Value{input}, []ort.Value{output}, options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("load onnx model %s: %w", path, err)
	}

	return &onnxSession{session: session, input: input, output: output}, nil
}

func (s *onnxSession) run(features []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.input.GetData(), features)
	if err := s.session.Run(); err != nil {
		return nil, err
	}
	raw := s.output.GetData()
	out := make([]float32, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *onnxSession) Close() {
	s.session.Destroy()
	s.input.Destroy()
	s.output.Destroy()
}

// runner is the seam between Model's decision logic and the concrete
// inference backend, so tests can substitute a fake session instead of
// loading real ONNX models.
type runner interface {
	run(features []float32) ([]float32, error)
}

// Model holds the two inference sessions (binary attack/not-attack,
// multiclass attack-family) the pipeline classifies flows against.
type Model struct {
	binary     runner
	multiclass runner

	closeFn func()
}

// LoadModel opens both ONNX models from disk. numClasses must match the
// multiclass model's output width, as reported by its class map. Sessions
// are held open for the lifetime of the returned Model; call Close when
// done.
func LoadModel(binaryPath, multiclassPath string, numClasses int) (*Model, error) {
	binary, err := newONNXSession(binaryPath, FeatureL1Count, 2)
	if err != nil {
		return nil, fmt.Errorf("load binary model: %w", err)
	}
	multiclass, err := newONNXSession(multiclassPath, FeatureL2Count, numClasses)
	if err != nil {
		binary.Close()
		return nil, fmt.Errorf("load multiclass model: %w", err)
	}
	return &Model{
		binary:     binary,
		multiclass: multiclass,
		closeFn:    func() { binary.Close(); multiclass.Close() },
	}, nil
}

// Close releases both inference sessions.
func (m *Model) Close() {
	if m.closeFn != nil {
		m.closeFn()
	}
}

func (m *Model) runBinary(r *flow.Record) (Inference, error) {
	feats := ExtractL1(r)
	start := time.Now()
	probs, err := m.binary.run(feats[:])
	if err != nil {
		return Inference{}, fmt.Errorf("run binary model: %w", err)
	}
	if len(probs) < 2 {
		return Inference{}, fmt.Errorf("expected 2 probabilities from binary model, got %d", len(probs))
	}

	pAttack := probs[1]
	var predLabel uint8
	if pAttack >= AttackThreshold {
		predLabel = 1
	}

	return Inference{PredLabel: predLabel, Probs: probs, Elapsed: time.Since(start)}, nil
}

func (m *Model) runMulticlass(r *flow.Record) (Inference, error) {
	feats := ExtractL2(r)
	start := time.Now()
	probs, err := m.multiclass.run(feats[:])
	if err != nil {
		return Inference{}, fmt.Errorf("run multiclass model: %w", err)
	}
	if len(probs) == 0 {
		return Inference{}, fmt.Errorf("empty probability vector from multiclass model")
	}

	predLabel := argmax(probs)
	return Inference{PredLabel: predLabel, Probs: probs, Elapsed: time.Since(start)}, nil
}

// argmax returns the index of the largest value, ties going to the
// lowest index.
func argmax(probs []float32) uint8 {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return uint8(best)
}

// ClassifyFlow runs the binary model, then the multiclass model only if
// the flow was flagged an attack.
func (m *Model) ClassifyFlow(r *flow.Record) (Result, error) {
	bin, err := m.runBinary(r)
	if err != nil {
		return Result{}, err
	}

	if bin.PredLabel != 1 {
		return Result{Binary: bin}, nil
	}

	multi, err := m.runMulticlass(r)
	if err != nil {
		return Result{}, err
	}
	return Result{Binary: bin, Multi: &multi}, nil
}
