package util

import (
	"strings"

	randomdata "github.com/Pallinder/go-randomdata"
	"github.com/google/uuid"
)

// RandomRunID produces a short, human-readable correlation ID for a
// pipeline run (e.g. "swift-falcon-3f9a21c4"), used in logs and HTTP
// responses to tie together everything one `layton run` invocation did.
func RandomRunID() string {
	return strings.Join([]string{
		randomdata.Adjective(),
		randomdata.Noun(),
		uuid.New().String()[0:8],
	}, "-")
}
