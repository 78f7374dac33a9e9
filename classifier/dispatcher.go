package classifier

import (
	"github.com/alonsoveliz1/layton/flow"
	"github.com/alonsoveliz1/layton/printer"
)

// Classified pairs a finished flow with the model's verdict for it.
type Classified struct {
	Flow   flow.Record
	Result Result
}

// Dispatcher runs a single goroutine pulling finished flows off In,
// classifying each, and pushing the pair onto Out. It mirrors a worker
// pinned to one model instance rather than a pool, since the ONNX
// sessions themselves serialize concurrent Run calls.
type Dispatcher struct {
	model *Model
	in    <-chan flow.Record
	out   chan Classified
}

// NewDispatcher wires a Model to an input channel of completed flows.
func NewDispatcher(model *Model, in <-chan flow.Record) *Dispatcher {
	return &Dispatcher{
		model: model,
		in:    in,
		out:   make(chan Classified, 256),
	}
}

// Out returns the channel of classified flows.
func (d *Dispatcher) Out() <-chan Classified {
	return d.out
}

// Run classifies flows until In is closed, then closes Out. It blocks,
// so callers should run it in its own goroutine.
func (d *Dispatcher) Run() {
	defer close(d.out)

	for rec := range d.in {
		r := rec
		result, err := d.model.ClassifyFlow(&r)
		if err != nil {
			printer.Warningf("classification error for flow %s: %v\n", r.Key, err)
			continue
		}

		select {
		case d.out <- Classified{Flow: r, Result: result}:
		default:
			printer.Warningf("dropping classified flow %s: publisher backlog full\n", r.Key)
		}
	}
}
