// Package publisher throttles a stream of stats updates down to a fixed
// emission rate, always coalescing to the most recent value rather than
// queuing every intermediate update.
package publisher

import (
	"context"
	"time"

	"github.com/alonsoveliz1/layton/engine"
)

const emitInterval = 250 * time.Millisecond

// Publisher holds the latest engine.Stats it has seen and emits it on a
// fixed tick, dropping any updates that arrive between ticks.
type Publisher struct {
	in  <-chan engine.Stats
	out chan engine.Stats
}

// New wires a Publisher to read from in.
func New(in <-chan engine.Stats) *Publisher {
	return &Publisher{
		in:  in,
		out: make(chan engine.Stats, 1),
	}
}

// Out returns the throttled stats channel. Sends are coalescing: a slow
// reader only ever sees the latest value, never a backlog.
func (p *Publisher) Out() <-chan engine.Stats {
	return p.out
}

// Run drives the throttle loop until ctx is cancelled or in closes.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(emitInterval)
	defer ticker.Stop()

	var latest engine.Stats
	var have bool

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-p.in:
			if !ok {
				return
			}
			latest = s
			have = true
		case <-ticker.C:
			if !have {
				continue
			}
			p.send(latest)
		}
	}
}

func (p *Publisher) send(s engine.Stats) {
	select {
	case p.out <- s:
		return
	default:
	}
	// Out already holds an unread value; replace it rather than block.
	select {
	case <-p.out:
	default:
	}
	select {
	case p.out <- s:
	default:
	}
}
