package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecclesia/internal/app"
	"ecclesia/internal/history"
	"ecclesia/internal/i18n"
	"ecclesia/internal/llm"
	"ecclesia/internal/scenario"
	"ecclesia/pkg/prompts"
)

const validReply = "```json\n{\"project_id\": \"p-1\", \"meta_data\": {\"title\": \"Garden\"}, \"cuts\": [{\"cut_number\": 1, \"duration\": 30}]}\n```"

func TestHistoryMutationsWhileBusy(t *testing.T) {
	gen := &stubGenerator{text: validReply, block: make(chan struct{}), entered: make(chan struct{})}
	h, svc := newTestRouter(t, gen)
	require.NoError(t, svc.History().Append(context.Background(), history.Item{ID: "a", Timestamp: 1}))

	done := make(chan int, 1)
	go func() {
		done <- do(t, h, http.MethodPost, "/api/scenarios", scenarioRequest{TotalDuration: 30, PerCut: 30}).Code
	}()
	<-gen.entered

	rec := do(t, h, http.MethodDelete, "/api/history/a", nil, "Accept-Language", "en")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A scenario is already being generated. Please wait.", decode[errorResponse](t, rec).Error)

	rec = do(t, h, http.MethodDelete, "/api/history?confirm=true", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, svc.History().Len())

	close(gen.block)
	require.Equal(t, http.StatusOK, <-done)

	rec = do(t, h, http.MethodDelete, "/api/history/a", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type stubGenerator struct {
	text    string
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	return s.text, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

func newTestRouter(t *testing.T, gen llm.Generator) (http.Handler, *app.Service) {
	t.Helper()

	p, err := prompts.Default()
	require.NoError(t, err)
	catalog, err := i18n.Default()
	require.NoError(t, err)

	store := history.NewStore(history.StoreOptions{
		Slot: history.NewFileSlot(filepath.Join(t.TempDir(), "history.json")),
	})
	require.NoError(t, store.Load(context.Background()))

	svc := app.NewService(app.ServiceOptions{
		Generator: gen,
		Builder:   scenario.NewBuilder(scenario.BuilderOptions{Prompts: p}),
		History:   store,
		Catalog:   catalog,
	})
	return New(svc, Options{}).Handler(), svc
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, &stubGenerator{})

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "stub", body["provider"])
	assert.Equal(t, false, body["busy"])
}

func TestAllocateCuts(t *testing.T) {
	h, _ := newTestRouter(t, &stubGenerator{})

	tests := []struct {
		name      string
		body      allocateRequest
		wantCode  int
		wantDurs  []int
		wantError string
	}{
		{
			name:     "byLength",
			body:     allocateRequest{TotalDuration: 100, PerCut: 30, Description: "verse"},
			wantCode: http.StatusOK,
			wantDurs: []int{30, 30, 30, 10},
		},
		{
			name:     "byCount",
			body:     allocateRequest{TotalDuration: 100, Count: 3},
			wantCode: http.StatusOK,
			wantDurs: []int{34, 33, 33},
		},
		{
			name:      "invalid",
			body:      allocateRequest{TotalDuration: 100, Language: "en"},
			wantCode:  http.StatusBadRequest,
			wantError: "Total duration and duration per cut must be greater than 0.",
		},
		{
			name:      "byLengthOverCutLimit",
			body:      allocateRequest{TotalDuration: math.MaxInt, PerCut: 1, Language: "en"},
			wantCode:  http.StatusBadRequest,
			wantError: "A scenario can have at most 1000 cuts.",
		},
		{
			name:      "byCountOverCutLimit",
			body:      allocateRequest{TotalDuration: 100, Count: 1 << 40, Language: "en"},
			wantCode:  http.StatusBadRequest,
			wantError: "A scenario can have at most 1000 cuts.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/cuts/allocate", tt.body)
			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantError != "" {
				body := decode[errorResponse](t, rec)
				assert.Equal(t, tt.wantError, body.Error)
				assert.Equal(t, scenario.KindValidation, body.Kind)
				return
			}

			body := decode[struct {
				Cuts []scenario.Cut `json:"cuts"`
			}](t, rec)
			require.Len(t, body.Cuts, len(tt.wantDurs))
			for i, d := range tt.wantDurs {
				assert.Equal(t, d, body.Cuts[i].Duration)
				assert.NotEmpty(t, body.Cuts[i].ID)
			}
		})
	}
}

func TestRebalanceCuts(t *testing.T) {
	h, _ := newTestRouter(t, &stubGenerator{})
	cuts := []scenario.Cut{{ID: "a", Duration: 50, Description: "x"}, {ID: "b", Duration: 50}}

	rec := do(t, h, http.MethodPost, "/api/cuts/rebalance", rebalanceRequest{TotalDuration: 101, Cuts: cuts})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Cuts    []scenario.Cut `json:"cuts"`
		Changed bool           `json:"changed"`
	}](t, rec)
	assert.True(t, body.Changed)
	assert.Equal(t, []scenario.Cut{{ID: "a", Duration: 51, Description: "x"}, {ID: "b", Duration: 50}}, body.Cuts)

	rec = do(t, h, http.MethodPost, "/api/cuts/rebalance", rebalanceRequest{TotalDuration: 100, Cuts: cuts})
	body = decode[struct {
		Cuts    []scenario.Cut `json:"cuts"`
		Changed bool           `json:"changed"`
	}](t, rec)
	assert.False(t, body.Changed)

	rec = do(t, h, http.MethodPost, "/api/cuts/rebalance", rebalanceRequest{TotalDuration: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateScenario(t *testing.T) {
	h, svc := newTestRouter(t, &stubGenerator{text: validReply})

	rec := do(t, h, http.MethodPost, "/api/scenarios", scenarioRequest{
		ProjectTitle:  "Garden",
		Theme:         "Matthew 26:36",
		TotalDuration: 60,
		PerCut:        30,
		Language:      "en",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Scenario map[string]any `json:"scenario"`
		JSON     string         `json:"json"`
		Cuts     []scenario.Cut `json:"cuts"`
		Item     history.Item   `json:"item"`
		Saved    bool           `json:"saved"`
	}](t, rec)

	assert.Equal(t, "p-1", body.Scenario["project_id"])
	assert.Contains(t, body.JSON, "\n  \"cuts\"")
	assert.Len(t, body.Cuts, 2)
	assert.True(t, body.Saved)
	assert.Equal(t, "Garden", body.Item.ProjectTitle)
	assert.Equal(t, 1, svc.History().Len())

	rec = do(t, h, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []history.Item `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, body.Item.ID, list.Items[0].ID)

	rec = do(t, h, http.MethodGet, "/api/history/"+body.Item.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body.Item.ID, decode[history.Item](t, rec).ID)
}

func TestCreateScenarioErrors(t *testing.T) {
	tests := []struct {
		name     string
		gen      *stubGenerator
		req      scenarioRequest
		header   []string
		wantCode int
		wantKind scenario.Kind
		wantMsg  string
	}{
		{
			name:     "validation",
			gen:      &stubGenerator{text: validReply},
			req:      scenarioRequest{TotalDuration: 0, PerCut: 30, Language: "en"},
			wantCode: http.StatusBadRequest,
			wantKind: scenario.KindValidation,
			wantMsg:  "Total duration and duration per cut must be greater than 0.",
		},
		{
			name:     "tooManyCuts",
			gen:      &stubGenerator{text: validReply},
			req:      scenarioRequest{TotalDuration: math.MaxInt, PerCut: 1, Language: "en"},
			wantCode: http.StatusBadRequest,
			wantKind: scenario.KindValidation,
			wantMsg:  "A scenario can have at most 1000 cuts.",
		},
		{
			name:     "malformed",
			gen:      &stubGenerator{text: "not json"},
			req:      scenarioRequest{TotalDuration: 30, PerCut: 30},
			header:   []string{"Accept-Language", "en-US,en;q=0.9"},
			wantCode: http.StatusBadGateway,
			wantKind: scenario.KindMalformedResponse,
			wantMsg:  "The AI returned an invalid JSON format. Please try generating again.",
		},
		{
			name:     "serviceKorean",
			gen:      &stubGenerator{err: errors.New("quota")},
			req:      scenarioRequest{TotalDuration: 30, PerCut: 30},
			wantCode: http.StatusBadGateway,
			wantKind: scenario.KindService,
			wantMsg:  "시나리오 생성 중 알 수 없는 오류가 발생했습니다.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestRouter(t, tt.gen)

			rec := do(t, h, http.MethodPost, "/api/scenarios", tt.req, tt.header...)
			require.Equal(t, tt.wantCode, rec.Code)

			body := decode[errorResponse](t, rec)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.Equal(t, tt.wantMsg, body.Error)
			assert.Equal(t, 0, svc.History().Len())
		})
	}
}

func TestCreateScenarioBusy(t *testing.T) {
	gen := &stubGenerator{text: validReply, block: make(chan struct{}), entered: make(chan struct{})}
	h, _ := newTestRouter(t, gen)
	req := scenarioRequest{TotalDuration: 30, PerCut: 30, Language: "en"}

	done := make(chan int, 1)
	go func() {
		done <- do(t, h, http.MethodPost, "/api/scenarios", req).Code
	}()
	<-gen.entered

	rec := do(t, h, http.MethodPost, "/api/scenarios", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A scenario is already being generated. Please wait.", decode[errorResponse](t, rec).Error)

	close(gen.block)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestCreateScenarioBadJSON(t *testing.T) {
	h, _ := newTestRouter(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/scenarios", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryDeleteAndClear(t *testing.T) {
	h, svc := newTestRouter(t, &stubGenerator{})
	ctx := context.Background()
	require.NoError(t, svc.History().Append(ctx, history.Item{ID: "a", Timestamp: 1}))
	require.NoError(t, svc.History().Append(ctx, history.Item{ID: "b", Timestamp: 2}))

	rec := do(t, h, http.MethodDelete, "/api/history/a", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/history/a", nil, "Accept-Language", "en")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No history item with id a.", decode[errorResponse](t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/history/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "정말로 모든 기록을 삭제하시겠습니까?", decode[errorResponse](t, rec).Error)
	assert.Equal(t, 1, svc.History().Len())

	rec = do(t, h, http.MethodDelete, "/api/history?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, svc.History().Len())
}

func TestMessages(t *testing.T) {
	h, _ := newTestRouter(t, &stubGenerator{})

	rec := do(t, h, http.MethodGet, "/api/messages/ko-KR", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Locale   string            `json:"locale"`
		Messages map[string]string `json:"messages"`
	}](t, rec)
	assert.Equal(t, "ko", body.Locale)
	assert.Equal(t, "시나리오 생성", body.Messages["generateButton"])

	rec = do(t, h, http.MethodGet, "/api/messages/fr", nil)
	body = decode[struct {
		Locale   string            `json:"locale"`
		Messages map[string]string `json:"messages"`
	}](t, rec)
	assert.Equal(t, "en", body.Locale)
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/api/history", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
