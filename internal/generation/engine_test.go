package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townerr/flashmind/internal/testutil"
)

func completionServer(t *testing.T, content string, capture *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// initialization probe
			w.WriteHeader(http.StatusOK)
			return
		}

		if capture != nil {
			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Messages, 1)
			*capture = req.Messages[0].Content
		}

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: content}})
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestEngine_Generate(t *testing.T) {
	content := `[{"question":"What is a cell?","answer":"The basic unit of life"},{"question":"What is DNA?","answer":"Genetic material"}]`
	srv := completionServer(t, content, nil)
	defer srv.Close()

	engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger())

	cards, err := engine.Generate(context.Background(), "Cells", 2)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "What is a cell?", cards[0].Question)
	assert.Equal(t, "The basic unit of life", cards[0].Answer)
	assert.NotEmpty(t, cards[0].ID)
	assert.NotEqual(t, cards[0].ID, cards[1].ID)
	assert.Nil(t, cards[0].AnsweredCorrect)
	assert.True(t, engine.Ready())
}

func TestEngine_Generate_ToleratesSurroundingProse(t *testing.T) {
	content := "Here are your flashcards:\n[{\"question\":\"q1\",\"answer\":\"a1\"}]\nEnjoy!"
	srv := completionServer(t, content, nil)
	defer srv.Close()

	engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger())

	cards, err := engine.Generate(context.Background(), "topic", 1)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "q1", cards[0].Question)
}

func TestEngine_Generate_MalformedOutputYieldsEmptyDeck(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no array", content: "I cannot help with that."},
		{name: "broken json", content: `[{"question": "q1", "answer":`},
		{name: "array of strings", content: `["not", "cards"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.content, nil)
			defer srv.Close()

			engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger())

			cards, err := engine.Generate(context.Background(), "topic", 3)
			require.NoError(t, err)
			assert.Empty(t, cards)
		})
	}
}

func TestEngine_Generate_SkipsBlankCards(t *testing.T) {
	content := `[{"question":"q1","answer":"a1"},{"question":"","answer":"a2"},{"question":"q3","answer":"  "}]`
	srv := completionServer(t, content, nil)
	defer srv.Close()

	engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger())

	cards, err := engine.Generate(context.Background(), "topic", 3)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "q1", cards[0].Question)
}

func TestEngine_Generate_PromptCarriesTopicAndCount(t *testing.T) {
	var prompt string
	srv := completionServer(t, `[{"question":"q","answer":"a"}]`, &prompt)
	defer srv.Close()

	engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger())

	_, err := engine.Generate(context.Background(), "Photosynthesis", 7)
	require.NoError(t, err)
	assert.Contains(t, prompt, "7 flashcards")
	assert.Contains(t, prompt, "Photosynthesis")
	assert.Contains(t, prompt, "JSON array")
}

type stubSearch struct {
	titles []string
	err    error
}

func (s stubSearch) Search(_ context.Context, _ string) ([]string, error) {
	return s.titles, s.err
}

func TestEngine_Generate_SearchContext(t *testing.T) {
	t.Run("titles appear in prompt", func(t *testing.T) {
		var prompt string
		srv := completionServer(t, `[{"question":"q","answer":"a"}]`, &prompt)
		defer srv.Close()

		engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger(),
			WithSearchProvider(stubSearch{titles: []string{"Cell biology basics", "Organelles overview"}}))

		_, err := engine.Generate(context.Background(), "Cells", 2)
		require.NoError(t, err)
		assert.Contains(t, prompt, "Cell biology basics")
		assert.Contains(t, prompt, "Organelles overview")
	})

	t.Run("search failure degrades to plain prompt", func(t *testing.T) {
		var prompt string
		srv := completionServer(t, `[{"question":"q","answer":"a"}]`, &prompt)
		defer srv.Close()

		engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger(),
			WithSearchProvider(stubSearch{err: context.DeadlineExceeded}))

		cards, err := engine.Generate(context.Background(), "Cells", 2)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.NotContains(t, prompt, "search results")
	})
}

func TestEngine_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := NewEngine(srv.URL, "test-model", "", testutil.MakeNoopLogger())

	_, err := engine.Generate(context.Background(), "topic", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestEngine_InitializationFailure(t *testing.T) {
	var readiness []bool
	engine := NewEngine("http://127.0.0.1:1/v1/chat/completions", "test-model", "", testutil.MakeNoopLogger(),
		WithReadyCallback(func(ok bool) { readiness = append(readiness, ok) }))

	_, err := engine.Generate(context.Background(), "topic", 1)
	require.Error(t, err)
	assert.False(t, engine.Ready())
	assert.Equal(t, []bool{false}, readiness)

	// the failed probe is not retried; the engine stays unavailable
	_, err = engine.Generate(context.Background(), "topic", 1)
	require.Error(t, err)
	assert.Equal(t, []bool{false}, readiness)
}

func TestSearxSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "cell biology", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		body := `{"results":[{"title":"One"},{"title":""},{"title":"Two"},{"title":"Three"},{"title":"Four"},{"title":"Five"},{"title":"Six"}]}`
		w.Header().Set("Content-Type", "application/json")
		_, _ = strings.NewReader(body).WriteTo(w)
	}))
	defer srv.Close()

	search := NewSearxSearch(srv.URL, nil)

	titles, err := search.Search(context.Background(), "cell biology")
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two", "Three", "Four", "Five"}, titles)
}

func TestSearxSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	search := NewSearxSearch(srv.URL, nil)

	_, err := search.Search(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
