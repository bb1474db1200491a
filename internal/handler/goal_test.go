package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educacao-adventista/matriculometro/internal/db/dbtest"
	"github.com/educacao-adventista/matriculometro/internal/model"
	"github.com/educacao-adventista/matriculometro/internal/repository"
	"github.com/educacao-adventista/matriculometro/internal/service"
	"github.com/educacao-adventista/matriculometro/internal/storage"
)

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()

	database := dbtest.New(t)
	svc := service.NewGoalService(repository.NewGoalRepository(database), storage.NewLogStorage())
	goal := NewGoalHandler(svc)
	health := NewHealthHandler(database)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("GET /goals", goal.List)
	mux.HandleFunc("GET /goals/summary", goal.Summary)
	mux.HandleFunc("GET /goals/{id}", goal.Show)
	mux.HandleFunc("POST /goals", goal.Create)
	mux.HandleFunc("PATCH /goals", goal.Patch)
	mux.HandleFunc("PUT /goals/{id}", goal.Update)
	mux.HandleFunc("DELETE /goals/{id}", goal.Delete)
	mux.HandleFunc("GET /goals/export", goal.Export)
	mux.HandleFunc("GET /goals/export.csv", goal.ExportCSV)
	mux.HandleFunc("POST /goals/import", goal.Import)
	mux.HandleFunc("POST /goals/import.csv", goal.ImportCSV)
	mux.HandleFunc("GET /{path...}", health.NotFound)
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGoalHandler_CreateAndList(t *testing.T) {
	mux := newMux(t)

	rec := do(t, mux, http.MethodPost, "/goals", `{"category":"Berçário","target":12,"achieved":3}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Goal](t, rec)
	assert.Positive(t, created.ID)
	assert.Equal(t, "Berçário", created.Category)

	rec = do(t, mux, http.MethodPost, "/goals", `{"category":"Maternal","target":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, mux, http.MethodGet, "/goals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	goals := decode[[]model.Goal](t, rec)
	require.Len(t, goals, 2)
	assert.Equal(t, "Berçário", goals[0].Category)
	assert.Equal(t, 0, goals[1].Achieved)
}

func TestGoalHandler_ListEmpty(t *testing.T) {
	rec := do(t, newMux(t), http.MethodGet, "/goals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGoalHandler_CreateErrors(t *testing.T) {
	mux := newMux(t)
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/goals", `{"category":"a","target":1}`).Code)

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"invalid json", `{"category":`, http.StatusBadRequest, "invalid JSON body"},
		{"missing target", `{"category":"b"}`, http.StatusBadRequest, "target is required"},
		{"negative achieved", `{"category":"b","target":1,"achieved":-1}`, http.StatusBadRequest, "achieved must not be negative"},
		{"duplicate", `{"category":" a ","target":1}`, http.StatusConflict, "category 'a' already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/goals", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errMsg, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestGoalHandler_BodyTooLarge(t *testing.T) {
	mux := newMux(t)

	body := `{"category":"` + strings.Repeat("a", maxBodyBytes) + `","target":1}`
	rec := do(t, mux, http.MethodPost, "/goals", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	goals := decode[[]model.Goal](t, do(t, mux, http.MethodGet, "/goals", ""))
	assert.Empty(t, goals)
}

func TestGoalHandler_ValidationFields(t *testing.T) {
	rec := do(t, newMux(t), http.MethodPost, "/goals", `{"target":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[errorResponse](t, rec)
	var fields []string
	for _, f := range resp.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"category", "target"}, fields)
}

func TestGoalHandler_UpdatePatchDelete(t *testing.T) {
	mux := newMux(t)
	created := decode[model.Goal](t, do(t, mux, http.MethodPost, "/goals", `{"category":"a","target":10,"achieved":4}`))
	id := strconv.FormatInt(created.ID, 10)

	rec := do(t, mux, http.MethodPut, "/goals/"+id, `{"category":"b","target":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Goal](t, rec)
	assert.Equal(t, "b", updated.Category)
	assert.Equal(t, 0, updated.Achieved)

	rec = do(t, mux, http.MethodGet, "/goals/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", decode[model.Goal](t, rec).Category)

	rec = do(t, mux, http.MethodPatch, "/goals", `{"id":`+id+`,"achieved":7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, decode[model.Goal](t, rec).Achieved)

	rec = do(t, mux, http.MethodPatch, "/goals", `{"id":"`+id+`","target":25}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 25, decode[model.Goal](t, rec).Target)

	rec = do(t, mux, http.MethodPatch, "/goals", `{"id":"abc","target":25}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", decode[errorResponse](t, rec).Error)

	rec = do(t, mux, http.MethodPatch, "/goals", `{"id":`+id+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPut, "/goals/abc", `{"category":"b","target":20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", decode[errorResponse](t, rec).Error)

	rec = do(t, mux, http.MethodPut, "/goals/999", `{"category":"c","target":20}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/goals/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, mux, http.MethodDelete, "/goals/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoalHandler_Summary(t *testing.T) {
	mux := newMux(t)
	do(t, mux, http.MethodPost, "/goals", `{"category":"a","target":10,"achieved":10}`)
	do(t, mux, http.MethodPost, "/goals", `{"category":"b","target":30,"achieved":6}`)

	rec := do(t, mux, http.MethodGet, "/goals/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		TotalTarget    int     `json:"totalTarget"`
		TotalAchieved  int     `json:"totalAchieved"`
		OverallPercent float64 `json:"overallPercent"`
		CompletedGoals int     `json:"completedGoals"`
		Segments       []struct {
			Category     string  `json:"category"`
			WidthPercent float64 `json:"widthPercent"`
			Remaining    int     `json:"remaining"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 40, summary.TotalTarget)
	assert.Equal(t, 16, summary.TotalAchieved)
	assert.InDelta(t, 40.0, summary.OverallPercent, 0.001)
	assert.Equal(t, 1, summary.CompletedGoals)
	require.Len(t, summary.Segments, 2)
	assert.InDelta(t, 75.0, summary.Segments[1].WidthPercent, 0.001)
	assert.Equal(t, 24, summary.Segments[1].Remaining)
}

func TestGoalHandler_ExportImportJSON(t *testing.T) {
	mux := newMux(t)
	do(t, mux, http.MethodPost, "/goals", `{"category":"a","target":10,"achieved":2}`)
	do(t, mux, http.MethodPost, "/goals", `{"category":"b","target":5}`)

	rec := do(t, mux, http.MethodGet, "/goals/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="enrollment_goals.json"`, rec.Header().Get("Content-Disposition"))
	exported := rec.Body.String()

	other := newMux(t)
	do(t, other, http.MethodPost, "/goals", `{"category":"stale","target":1}`)

	rec = do(t, other, http.MethodPost, "/goals/import", exported)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"import completed","count":2}`, rec.Body.String())

	rec = do(t, other, http.MethodGet, "/goals", "")
	assert.JSONEq(t, strings.TrimSpace(exported), rec.Body.String())
}

func TestGoalHandler_ImportErrors(t *testing.T) {
	mux := newMux(t)
	do(t, mux, http.MethodPost, "/goals", `{"category":"keep","target":1}`)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"object instead of array", `{"category":"a","target":1}`, http.StatusBadRequest},
		{"malformed", `[{"category":`, http.StatusBadRequest},
		{"missing target", `[{"category":"a"}]`, http.StatusBadRequest},
		{"duplicate categories", `[{"category":"a","target":1},{"category":"a","target":2}]`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/goals/import", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, mux, http.MethodPost, "/goals/import", `{}`)
	assert.Contains(t, decode[errorResponse](t, rec).Error, `"category": "1º ano manhã"`)

	goals := decode[[]model.Goal](t, do(t, mux, http.MethodGet, "/goals", ""))
	require.Len(t, goals, 1)
	assert.Equal(t, "keep", goals[0].Category)
}

func TestGoalHandler_CSV(t *testing.T) {
	mux := newMux(t)
	do(t, mux, http.MethodPost, "/goals", `{"category":"Turma \"A\", manhã","target":20,"achieved":5}`)

	rec := do(t, mux, http.MethodGet, "/goals/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="enrollment_goals.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), `"Turma ""A"", manhã",20,5`)

	other := newMux(t)
	rec = do(t, other, http.MethodPost, "/goals/import.csv", rec.Body.String())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"import completed","count":1}`, rec.Body.String())

	goals := decode[[]model.Goal](t, do(t, other, http.MethodGet, "/goals", ""))
	require.Len(t, goals, 1)
	assert.Equal(t, `Turma "A", manhã`, goals[0].Category)

	// A file with rows but none readable must not empty the table.
	rec = do(t, other, http.MethodPost, "/goals/import.csv", "category,target,achieved\n\"Creche,1,1\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no valid goal rows found", decode[errorResponse](t, rec).Error)

	goals = decode[[]model.Goal](t, do(t, other, http.MethodGet, "/goals", ""))
	assert.Len(t, goals, 1)
}

func TestHealthHandler(t *testing.T) {
	mux := newMux(t)

	rec := do(t, mux, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/goals/5", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	database := dbtest.New(t)
	require.NoError(t, database.Close())

	rec := httptest.NewRecorder()
	NewHealthHandler(database).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
