// Package generation produces flashcard decks from a topic via a
// chat-completion endpoint, optionally enriched with search context.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
)

var _ model.CardGenerator = (*Engine)(nil)

// Engine generates flashcards through an OpenAI-compatible
// chat-completions endpoint. The first Generate call initializes the
// engine; concurrent callers wait for that initialization rather than
// starting a second one.
type Engine struct {
	endpoint   string
	model      string
	apiKey     string
	search     model.SearchProvider
	httpClient *http.Client
	logger     *logger.Logger

	initOnce sync.Once
	initErr  error
	ready    bool
	readyMu  sync.Mutex

	onReady func(bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSearchProvider enables search-context enrichment. Search failures
// degrade to no-context generation.
func WithSearchProvider(search model.SearchProvider) Option {
	return func(e *Engine) { e.search = search }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(e *Engine) { e.httpClient = httpClient }
}

// WithReadyCallback registers a hook invoked once when initialization
// settles, with its outcome.
func WithReadyCallback(onReady func(bool)) Option {
	return func(e *Engine) { e.onReady = onReady }
}

// NewEngine creates an Engine for the given endpoint and model name.
func NewEngine(endpoint, modelName, apiKey string, logger *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		endpoint:   endpoint,
		model:      modelName,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ready reports whether the engine has finished initializing.
func (e *Engine) Ready() bool {
	e.readyMu.Lock()
	defer e.readyMu.Unlock()
	return e.ready
}

// initialize probes the endpoint once. Generate calls block on the same
// probe instead of racing their own.
func (e *Engine) initialize(ctx context.Context) error {
	e.initOnce.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseOf(e.endpoint), nil)
		if err != nil {
			e.initErr = fmt.Errorf("failed to build probe request: %w", err)
		} else {
			resp, err := e.httpClient.Do(req)
			if err != nil {
				e.initErr = fmt.Errorf("generation endpoint unreachable: %w", err)
			} else {
				resp.Body.Close()
			}
		}

		e.readyMu.Lock()
		e.ready = e.initErr == nil
		e.readyMu.Unlock()

		if e.onReady != nil {
			e.onReady(e.initErr == nil)
		}
		if e.initErr != nil {
			e.logger.Error("Generation engine: initialization failed", "error", e.initErr)
		} else {
			e.logger.Info("Generation engine: ready", "model", e.model)
		}
	})
	return e.initErr
}

// baseOf strips the chat-completions path so the probe hits the server
// root rather than issuing a completion.
func baseOf(endpoint string) string {
	if i := strings.Index(endpoint, "/v1/"); i > 0 {
		return endpoint[:i]
	}
	return endpoint
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type generatedCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Generate produces count cards for the topic. Malformed or empty model
// output yields an empty deck, not an error; callers treat an empty deck
// as generation failure.
func (e *Engine) Generate(ctx context.Context, topic string, count int) ([]model.Flashcard, error) {
	if err := e.initialize(ctx); err != nil {
		return nil, err
	}

	prompt := e.buildPrompt(ctx, topic, count)

	body, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("completion request returned status %d: %s", resp.StatusCode, data)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return []model.Flashcard{}, nil
	}

	return e.parseCards(completion.Choices[0].Message.Content), nil
}

// buildPrompt asks for a strict JSON array of question/answer objects,
// prepending search context when available.
func (e *Engine) buildPrompt(ctx context.Context, topic string, count int) string {
	var sb strings.Builder

	if e.search != nil {
		titles, err := e.search.Search(ctx, topic)
		if err != nil {
			e.logger.Debug("Generation engine: search context unavailable", "error", err)
		} else if len(titles) > 0 {
			sb.WriteString("Use the following search results as context:\n")
			for _, title := range titles {
				sb.WriteString("- ")
				sb.WriteString(title)
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "Generate %d flashcards about %q. ", count, topic)
	sb.WriteString(`Respond with ONLY a JSON array of objects, each with a "question" field and an "answer" field. Keep questions and answers concise. Do not include any text outside the JSON array.`)
	return sb.String()
}

// parseCards extracts the JSON array from model output, tolerating prose
// around it. Anything unparsable yields an empty deck.
func (e *Engine) parseCards(content string) []model.Flashcard {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		e.logger.Error("Generation engine: no JSON array in model output")
		return []model.Flashcard{}
	}

	var generated []generatedCard
	if err := json.Unmarshal([]byte(content[start:end+1]), &generated); err != nil {
		e.logger.Error("Generation engine: malformed model output", "error", err)
		return []model.Flashcard{}
	}

	cards := make([]model.Flashcard, 0, len(generated))
	for _, g := range generated {
		question := strings.TrimSpace(g.Question)
		answer := strings.TrimSpace(g.Answer)
		if question == "" || answer == "" {
			continue
		}
		cards = append(cards, model.Flashcard{
			ID:       newCardID(),
			Question: question,
			Answer:   answer,
		})
	}
	return cards
}

func newCardID() string {
	id, err := gonanoid.New()
	if err != nil {
		// gonanoid only fails when the system entropy source does.
		panic(err)
	}
	return id
}
