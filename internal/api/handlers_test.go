// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/engine"
	"github.com/tmachnicki/pathweaver/internal/feedback"
	"github.com/tmachnicki/pathweaver/internal/flatten"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/pathbuild"
	"github.com/tmachnicki/pathweaver/internal/relevance"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

const apiCatalogJSON = `[
	{
		"code": "lumen-course",
		"title": "Lumen Lighting Deep Dive",
		"playables": [
			{"locator": "vid-lumen", "title": "Lumen Basics", "duration_seconds": 600, "ordinal": 1}
		],
		"canonical_tags": ["rendering.lumen"]
	}
]`

const apiTaxonomyJSON = `{
	"tags": [{"id": "rendering.lumen", "name": "Lumen", "type": "topic"}],
	"edges": []
}`

const apiWordTablesJSON = `{"lumen-course": {"lumen": 5, "lighting": 4}}`

func testRouter(t *testing.T, withFeedback bool) http.Handler {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		catalog.FileCatalog:    apiCatalogJSON,
		catalog.FileTaxonomy:   apiTaxonomyJSON,
		catalog.FileWordTables: apiWordTablesJSON,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	var fb *feedback.Store
	if withFeedback {
		var err error
		fb, err = feedback.Open(t.TempDir(), zerolog.Nop())
		if err != nil {
			t.Fatalf("open feedback store: %v", err)
		}
		t.Cleanup(func() { fb.Close() })
	}

	cfg := relevance.DefaultConfig()
	cfg.MinResults = 1
	eng := engine.New(
		catalog.NewRepository(dir, zerolog.Nop()),
		relevance.New(cfg,
			match.NewLexical(match.DefaultLexicalConfig()),
			match.NewSemantic(match.DefaultSemanticConfig()),
			match.NewCurated(),
			zerolog.Nop(),
		),
		flatten.New(flatten.DefaultConfig()),
		nil,
		fb,
		pathbuild.DefaultConfig(),
		taxonomy.DefaultConfig(),
		zerolog.Nop(),
	)
	return NewRouter(NewHandler(eng, zerolog.Nop()), DefaultMiddlewareConfig(), zerolog.Nop())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return rec, resp
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !resp.Success || resp.Error != nil {
		t.Fatalf("envelope = %+v", resp)
	}
	if resp.Meta == nil || resp.Meta.RequestID == "" {
		t.Error("meta request ID missing")
	}
}

func TestMatchEndpoint(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/match",
		map[string]any{"query": "lumen lighting"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Fatalf("envelope = %+v", resp)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	matches, ok := data["matches"].([]any)
	if !ok || len(matches) == 0 {
		t.Fatalf("matches = %v", data["matches"])
	}
}

func TestMatchValidation(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/match", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestMatchInvalidJSON(t *testing.T) {
	router := testRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeBadRequest {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestMatchRejectsBadVector(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/match",
		map[string]any{"query": "lumen", "vector": "!!!not-base64!!!"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeBadRequest {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestPathEndpoint(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/path",
		map[string]any{"query": "lumen lighting", "time_budget_minutes": 60})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	path, ok := data["path"].(map[string]any)
	if !ok {
		t.Fatalf("path = %v", data["path"])
	}
	items, ok := path["items"].([]any)
	if !ok || len(items) == 0 {
		t.Fatalf("path items = %v", path["items"])
	}
	playables, ok := data["playables"].([]any)
	if !ok || len(playables) == 0 {
		t.Fatalf("playables = %v", data["playables"])
	}
}

func TestPathValidationRejectsHugeBudget(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/path",
		map[string]any{"query": "lumen", "time_budget_minutes": 5000})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	router := testRouter(t, true)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/feedback",
		map[string]any{"user_id": "user-1", "item_code": "lumen-course", "event": "engaged"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestFeedbackRejectsUnknownEvent(t *testing.T) {
	router := testRouter(t, true)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/feedback",
		map[string]any{"user_id": "user-1", "item_code": "lumen-course", "event": "liked"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	router := testRouter(t, false)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/match", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotAllowed {
		t.Fatalf("envelope = %+v", resp)
	}
}
