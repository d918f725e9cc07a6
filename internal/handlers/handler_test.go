package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latestcomment/go-ai-debate/internal/guardrail"
	"github.com/latestcomment/go-ai-debate/internal/models"
	"github.com/latestcomment/go-ai-debate/internal/services"
	"github.com/latestcomment/go-ai-debate/internal/store"
)

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(context.Context, models.GenerationRequest) (string, error) {
	return g.text, g.err
}

func newTestApp(t *testing.T, gen services.Generator, rateLimit int) *fiber.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard, err := guardrail.New(nil, guardrail.Config{}, logger)
	require.NoError(t, err)
	watch := services.NewWatchService(nil, logger)
	debates := services.NewDebateService(store.NewMemory(), gen, guard, watch, services.DebateConfig{DefaultStyle: models.StyleWitty}, logger)
	return NewApp(AppOptions{
		Debates:         debates,
		Watch:           watch,
		Logger:          logger,
		RateLimitMax:    rateLimit,
		RateLimitWindow: time.Minute,
	})
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func createDebate(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := do(t, app, http.MethodPost, "/api/debates", `{"topic":"Pineapple on pizza?","style_tag":"witty","rounds":3}`)
	require.Equal(t, http.StatusOK, status, body)
	debate := body["debate"].(map[string]any)
	id, _ := debate["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "x"}, 0)
	status, body := do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
}

func TestCreateStepFetch(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "Mocked debate turn ✅"}, 0)
	id := createDebate(t, app)

	status, body := do(t, app, http.MethodPost, "/api/debates/"+id+"/step", "")
	require.Equal(t, http.StatusOK, status, body)
	turn := body["turn"].(map[string]any)
	assert.Contains(t, turn["content"], "Mocked debate turn")
	assert.Equal(t, "A", turn["side"])
	assert.Equal(t, "opening", turn["role"])
	assert.EqualValues(t, 1, turn["round_no"])

	status, body = do(t, app, http.MethodGet, "/api/debates/"+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["turns"], 1)
	assert.Equal(t, map[string]any{"A": float64(0), "B": float64(0)}, body["votes"])
}

func TestStepUntilFinished(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "ok"}, 0)
	id := createDebate(t, app)

	for i := 0; i < 10; i++ {
		status, body := do(t, app, http.MethodPost, "/api/debates/"+id+"/step", "")
		require.Equal(t, http.StatusOK, status, body)
		require.Contains(t, body, "turn")
	}
	status, body := do(t, app, http.MethodPost, "/api/debates/"+id+"/step", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "finished", body["status"])
	assert.Len(t, body["turns"], 10)
	assert.Equal(t, "finished", body["debate"].(map[string]any)["status"])
}

func TestCreateDebateRejects(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "x"}, 0)
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "five rounds", body: `{"topic":"Pineapple on pizza?","rounds":5}`, want: "MVP supports rounds=3 only for now."},
		{name: "short topic", body: `{"topic":"no"}`, want: "topic"},
		{name: "bad style", body: `{"topic":"Pineapple","style_tag":"rude"}`, want: "style_tag"},
		{name: "bad json", body: `{"topic":`, want: "invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodPost, "/api/debates", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestStepGenerationFailure(t *testing.T) {
	app := newTestApp(t, &stubGenerator{err: errors.New("upstream down")}, 0)
	id := createDebate(t, app)

	status, body := do(t, app, http.MethodPost, "/api/debates/"+id+"/step", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "generation failed", body["error"])

	_, body = do(t, app, http.MethodGet, "/api/debates/"+id, "")
	assert.Empty(t, body["turns"])
	assert.Equal(t, "live", body["debate"].(map[string]any)["status"])
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "x"}, 0)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/debates/nope/step"},
		{http.MethodGet, "/api/debates/nope"},
	} {
		status, body := do(t, app, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, status, tc.path)
		assert.Equal(t, "not found", body["error"])
	}
	status, _ := do(t, app, http.MethodGet, "/debates/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVotes(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "x"}, 0)
	id := createDebate(t, app)

	status, body := do(t, app, http.MethodPost, "/api/votes", `{"debate_id":"`+id+`","winner":"B","fingerprint":"browser-123"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "B", body["vote"].(map[string]any)["winner"])

	status, _ = do(t, app, http.MethodPost, "/api/votes", `{"debate_id":"`+id+`","winner":"A","fingerprint":"browser-123"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = do(t, app, http.MethodPost, "/api/votes", `{"debate_id":"`+id+`","winner":"C","fingerprint":"browser-123"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/votes", `{"debate_id":"0123456789abc","winner":"A","fingerprint":"browser-123"}`)
	assert.Equal(t, http.StatusNotFound, status)

	_, body = do(t, app, http.MethodGet, "/api/debates/"+id, "")
	assert.Equal(t, map[string]any{"A": float64(0), "B": float64(1)}, body["votes"])
}

func TestDebatePage(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "Cheese is the foundation."}, 0)
	id := createDebate(t, app)
	status, _ := do(t, app, http.MethodPost, "/api/debates/"+id+"/step", "")
	require.Equal(t, http.StatusOK, status)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/debates/"+id, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page := string(raw)
	assert.Contains(t, page, "Pineapple on pizza?")
	assert.Contains(t, page, "Cheese is the foundation.")
	assert.Contains(t, page, "1/10 turns")
	assert.Contains(t, page, "new WebSocket")
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "x"}, 0)
	status, _ := do(t, app, http.MethodGet, "/ws/debates/abc", "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, &stubGenerator{text: "x"}, 2)
	for i := 0; i < 2; i++ {
		status, _ := do(t, app, http.MethodGet, "/api/debates/nope", "")
		assert.Equal(t, http.StatusNotFound, status)
	}
	status, body := do(t, app, http.MethodGet, "/api/debates/nope", "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "too many requests", body["error"])

	// Outside /api is not limited.
	status, _ = do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
}
