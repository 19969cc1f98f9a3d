package ui

import (
	"context"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ptscope/ptscope/pkg/api"
	"github.com/ptscope/ptscope/pkg/assistant"
	"github.com/ptscope/ptscope/pkg/model"
)

// assistantTimeout bounds one chat round trip. LLM backends are slower than
// the data endpoints, so this is looser than api.DefaultTimeout.
const assistantTimeout = 60 * time.Second

// trialsLoadedMsg carries the result of one trial list fetch. seq ties the
// response to the request generation that issued it; the store drops commits
// whose seq is stale, so an old response can never overwrite a newer one.
type trialsLoadedMsg struct {
	seq    uint64
	trials []model.Trial
	err    error
}

// analyticsLoadedMsg carries the dashboard aggregate snapshot.
type analyticsLoadedMsg struct {
	snap *model.AnalyticsSnapshot
	err  error
}

// shapLoadedMsg carries one trial's feature attribution. trialID routes the
// response: consumers ignore explanations for trials they no longer show.
type shapLoadedMsg struct {
	trialID string
	exp     *model.SHAPExplanation
	err     error
}

// chatAnsweredMsg carries the assistant's reply to the pending question.
type chatAnsweredMsg struct {
	resp *model.ChatResponse
	err  error
}

// fetchTrialsCmd performs one gateway list call for the given generation.
func fetchTrialsCmd(gw api.Gateway, seq uint64, params url.Values) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		trials, err := gw.ListTrials(ctx, params)
		return trialsLoadedMsg{seq: seq, trials: trials, err: err}
	}
}

func fetchAnalyticsCmd(gw api.Gateway) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		snap, err := gw.Analytics(ctx)
		return analyticsLoadedMsg{snap: snap, err: err}
	}
}

func fetchExplanationCmd(gw api.Gateway, trialID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		exp, err := gw.Explanation(ctx, trialID)
		return shapLoadedMsg{trialID: trialID, exp: exp, err: err}
	}
}

// askCmd routes a question to the local responder when one is wired, and to
// the gateway's chat endpoint otherwise. trials give a local responder its
// grounding context.
func askCmd(gw api.Gateway, responder assistant.Responder, question string, trials []model.Trial) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), assistantTimeout)
		defer cancel()
		if responder != nil {
			resp, err := responder.Respond(ctx, question, trials)
			return chatAnsweredMsg{resp: resp, err: err}
		}
		resp, err := gw.Chat(ctx, question)
		return chatAnsweredMsg{resp: resp, err: err}
	}
}
