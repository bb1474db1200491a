package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/educacao-adventista/matriculometro/internal/codec"
	"github.com/educacao-adventista/matriculometro/internal/model"
	"github.com/educacao-adventista/matriculometro/internal/service"
)

// maxImportBytes bounds import request bodies.
const maxImportBytes = 5 << 20

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalService.Goals()
	if err != nil {
		writeError(w, r, err, "failed to fetch enrollment goals")
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.ByID(id)
	if err != nil {
		writeError(w, r, err, "failed to fetch enrollment goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.goalService.Summary()
	if err != nil {
		writeError(w, r, err, "failed to summarize enrollment goals")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.GoalInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	goal, err := h.goalService.Create(in)
	if err != nil {
		writeError(w, r, err, "failed to create enrollment goal")
		return
	}

	slog.Info("goal created", "goal_id", goal.ID, "category", goal.Category)
	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID       json.RawMessage `json:"id"`
		Target   *int            `json:"target"`
		Achieved *int            `json:"achieved"`
	}
	err := decodeJSON(w, r, &body)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	id, err := parseID(body.ID)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	goal, err := h.goalService.Patch(model.GoalPatch{ID: id, Target: body.Target, Achieved: body.Achieved})
	if err != nil {
		writeError(w, r, err, "failed to update enrollment goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in model.GoalInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	goal, err := h.goalService.Update(id, in)
	if err != nil {
		writeError(w, r, err, "failed to update enrollment goal")
		return
	}

	slog.Info("goal updated", "goal_id", goal.ID, "category", goal.Category)
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.goalService.Delete(id)
	if err != nil {
		writeError(w, r, err, "failed to delete enrollment goal")
		return
	}

	slog.Info("goal deleted", "goal_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalService.Goals()
	if err != nil {
		writeError(w, r, err, "failed to export goals")
		return
	}

	var buf bytes.Buffer
	err = codec.WriteJSON(&buf, goals)
	if err != nil {
		writeError(w, r, err, "failed to export goals")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="enrollment_goals.json"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *GoalHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalService.Goals()
	if err != nil {
		writeError(w, r, err, "failed to export goals")
		return
	}

	var buf bytes.Buffer
	err = codec.WriteCSV(&buf, goals)
	if err != nil {
		writeError(w, r, err, "failed to export goals")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="enrollment_goals.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *GoalHandler) Import(w http.ResponseWriter, r *http.Request) {
	records, err := codec.DecodeImport(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, r, err, "failed to import data")
		return
	}

	count, err := h.goalService.Replace(records)
	if err != nil {
		writeError(w, r, err, "failed to import data")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "import completed", "count": count})
}

func (h *GoalHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	inputs, err := codec.ParseCSV(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, r, err, "failed to import data")
		return
	}

	count, err := h.goalService.ImportCSV(inputs)
	if err != nil {
		writeError(w, r, err, "failed to import data")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "import completed", "count": count})
}

// pathID parses the {id} path value, answering 400 when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
