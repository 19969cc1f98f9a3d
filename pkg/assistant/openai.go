package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/model"
)

// contextTrialLimit caps how many trials are serialized into the prompt.
const contextTrialLimit = 40

const systemPrompt = `You are an analyst for a clinical-trial PTS dashboard.
Answer the user's question about the trials listed below.
Reply with a single JSON object using one of these shapes:
  {"type":"text","text":...}
  {"type":"table","title":...,"columns":[...],"rows":[[...]]}
  {"type":"list","title":...,"items":[...]}
  {"type":"summary","title":...,"stats":[{"label":...,"value":...}]}
  {"type":"features","title":...,"features":[{"feature":...,"direction":"positive"|"negative","weight":...}]}
  {"type":"whatif","title":...,"baseline":...,"adjusted":...,"delta":...}
Keep tables to at most 10 rows. Use only data from the context.`

// LLM answers queries through a chat-completion model. It is wired in only
// when an API key is configured; the canned responder remains the fallback.
type LLM struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewLLM returns a responder backed by the given model (GPT4oMini when
// empty). Requests are rate limited to one per second with a small burst.
func NewLLM(apiKey, chatModel string, log zerolog.Logger) *LLM {
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	return &LLM{
		client:  openai.NewClient(apiKey),
		model:   chatModel,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		log:     log,
	}
}

// Respond implements Responder.
func (l *LLM) Respond(ctx context.Context, query string, trials []model.Trial) (*model.ChatResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt + "\n\nContext:\n" + trialContext(trials),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: query,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	l.log.Debug().Str("model", l.model).Int("context_trials", len(trials)).Msg("llm answer received")

	var out model.ChatResponse
	if err := json.Unmarshal([]byte(content), &out); err != nil || !out.Kind.IsValid() {
		// An unparseable or off-schema reply still reaches the user as text.
		return &model.ChatResponse{Kind: model.KindText, Text: strings.TrimSpace(content)}, nil
	}
	return &out, nil
}

// trialContext serializes the current trial set into compact prompt lines.
func trialContext(trials []model.Trial) string {
	if len(trials) == 0 {
		return "(no trials loaded)"
	}
	n := len(trials)
	if n > contextTrialLimit {
		n = contextTrialLimit
	}
	var sb strings.Builder
	for _, t := range trials[:n] {
		fmt.Fprintf(&sb, "%s | %s | %s | %s | PTS %s | enroll %d | %d countries | %d days | endpoints %s\n",
			t.ID, t.Sponsor, t.TherapeuticArea, t.Status,
			analytics.FormatScore(t.PTS), t.Enrollment, t.Countries, t.DurationDays,
			strings.Join(t.Endpoints.Labels(), "/"))
	}
	if len(trials) > n {
		fmt.Fprintf(&sb, "(%d more trials omitted)\n", len(trials)-n)
	}
	return sb.String()
}
