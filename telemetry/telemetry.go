// Package telemetry rate-limits noisy recurring errors so a single
// misbehaving flow or model doesn't flood the logs, without the
// analytics/reporting layer the pattern originally fed.
package telemetry

import (
	"sync"
	"time"

	"github.com/alonsoveliz1/layton/printer"
)

type eventRecord struct {
	// Number of occurrences since the last one was logged.
	Count int

	NextLog time.Time
}

var rateLimitMap sync.Map

const rateLimitDuration = 60 * time.Second

// RateLimitError logs an error in a particular operation (inContext), at
// most once per rateLimitDuration for that context; occurrences in
// between are counted and folded into the next log line.
func RateLimitError(inContext string, e error) {
	newRecord := eventRecord{
		Count:   0,
		NextLog: time.Now().Add(rateLimitDuration),
	}
	existing, present := rateLimitMap.LoadOrStore(inContext, newRecord)

	count := 1
	if present {
		record := existing.(eventRecord)

		if record.NextLog.After(time.Now()) {
			// This is a data race but not worth worrying about (by using a
			// mutex); sometimes the count will be low.
			record.Count++
			rateLimitMap.Store(inContext, record)
			return
		}

		count = record.Count + 1
		rateLimitMap.Store(inContext, newRecord)
	}

	if count > 1 {
		printer.Warningf("%s: %v (%d occurrences in the last %s)\n", inContext, e, count, rateLimitDuration)
	} else {
		printer.Warningf("%s: %v\n", inContext, e)
	}
}
