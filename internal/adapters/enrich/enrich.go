// Package enrich asks a chat-completion model for narrative coaching feedback
// on top of a finished analysis.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/okian/posecoach/pkg/logger"
)

// Default enrichment configuration constants.
const (
	DefaultBaseURL          = "https://api.openai.com/v1"
	DefaultModel            = "gpt-4o-mini"
	defaultMaxTokens        = 900
	defaultTimeout          = 20 * time.Second
	defaultTranscriptBudget = 12_000
	defaultMaxRetries       = 1
)

const systemPrompt = `You are a presentation coach. You receive a JSON digest of body-language
analytics for one rehearsal and the speaker's transcript. Reply with short, specific
coaching: three strengths, three improvements tied to timecodes, and one drill to practice.
Quote transcript lines when they help. Do not invent measurements that are not in the digest.`

// Enricher produces narrative feedback for a session digest.
type Enricher interface {
	Enrich(ctx context.Context, s Summary, transcript string) (string, error)
}

// Option configures an OpenAI enricher.
type Option func(*OpenAI)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *OpenAI) { o.apiKey = strings.TrimSpace(key) }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(u string) Option {
	return func(o *OpenAI) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			o.baseURL = u
		}
	}
}

// WithModel sets the chat model.
func WithModel(m string) Option {
	return func(o *OpenAI) {
		if m = strings.TrimSpace(m); m != "" {
			o.model = m
		}
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(o *OpenAI) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(o *OpenAI) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTranscriptBudget caps how many transcript characters are sent.
func WithTranscriptBudget(n int) Option {
	return func(o *OpenAI) {
		if n > 0 {
			o.transcriptBudget = n
		}
	}
}

// WithHTTPClient sets the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OpenAI) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *OpenAI) {
		if l != nil {
			o.log = l
		}
	}
}

// OpenAI enriches through the chat completions API.
type OpenAI struct {
	apiKey           string
	baseURL          string
	model            string
	maxTokens        int
	timeout          time.Duration
	transcriptBudget int
	httpClient       *http.Client
	log              logger.Logger

	client openaigo.Client
}

// NewOpenAI builds an enricher. A key is required.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	o := &OpenAI{
		baseURL:          DefaultBaseURL,
		model:            DefaultModel,
		maxTokens:        defaultMaxTokens,
		timeout:          defaultTimeout,
		transcriptBudget: defaultTranscriptBudget,
		log:              logger.Get().Named("enrich"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	o.client = openaigo.NewClient(
		option.WithBaseURL(o.baseURL),
		option.WithAPIKey(o.apiKey),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(defaultMaxRetries),
		option.WithRequestTimeout(o.timeout),
	)
	return o, nil
}

// Enrich sends the digest and transcript and returns the model's text.
func (o *OpenAI) Enrich(ctx context.Context, s Summary, transcript string) (string, error) {
	digest, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	var user strings.Builder
	user.WriteString("Analytics digest:\n")
	user.Write(digest)
	if t := strings.TrimSpace(transcript); t != "" {
		user.WriteString("\n\nTranscript:\n")
		user.WriteString(Truncate(t, o.transcriptBudget))
	}

	resp, err := o.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(o.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(systemPrompt),
			openaigo.UserMessage(user.String()),
		},
		MaxCompletionTokens: param.NewOpt(int64(o.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	o.log.Debug(ctx, "enrichment received", logger.Int("chars", len(text)), logger.String("model", o.model))
	return text, nil
}
