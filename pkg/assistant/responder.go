// Package assistant implements the query panel: an append-only message log
// with a processing flag, a canned pattern-matching responder, and an
// optional LLM-backed responder. Transport failures never propagate; they
// become a single apologetic message in the log.
package assistant

import (
	"context"

	"github.com/ptscope/ptscope/pkg/model"
)

// DefaultAnswer is returned verbatim when no canned rule matches.
const DefaultAnswer = "I can answer questions about top oncology trials, sponsors with trials above 80 PTS, ORR endpoint coverage, and common failure features. Try one of those."

// ApologyText is the fixed message appended when a chat request fails.
const ApologyText = "Sorry, I ran into a problem answering that. Please try again."

// Responder produces one structured answer for one free-text query, given
// the trial set currently loaded in the explorer.
type Responder interface {
	Respond(ctx context.Context, query string, trials []model.Trial) (*model.ChatResponse, error)
}
