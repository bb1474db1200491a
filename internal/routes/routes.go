package routes

import (
	"net/http"

	"github.com/educacao-adventista/matriculometro/internal/app"
	"github.com/educacao-adventista/matriculometro/internal/handler"
	"github.com/educacao-adventista/matriculometro/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	goal := handler.NewGoalHandler(app.GoalService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Health)

	// Goals
	mux.HandleFunc("GET /goals", goal.List)
	mux.HandleFunc("GET /goals/summary", goal.Summary)
	mux.HandleFunc("GET /goals/{id}", goal.Show)
	mux.HandleFunc("POST /goals", goal.Create)
	mux.HandleFunc("PATCH /goals", goal.Patch)
	mux.HandleFunc("PUT /goals/{id}", goal.Update)
	mux.HandleFunc("DELETE /goals/{id}", goal.Delete)

	// Export / import (imports replace every goal, so they are rate limited)
	rateLimiter := middleware.RateLimit(middleware.NewRateLimiter(app.Cfg.ImportRateLimit, app.Cfg.ImportRateWindow))

	mux.HandleFunc("GET /goals/export", goal.Export)
	mux.HandleFunc("GET /goals/export.csv", goal.ExportCSV)
	mux.HandleFunc("POST /goals/import", rateLimiter(goal.Import))
	mux.HandleFunc("POST /goals/import.csv", rateLimiter(goal.ImportCSV))

	// 404 for unknown GET paths; known paths with the wrong method get 405
	mux.HandleFunc("GET /{path...}", health.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging,
	)

	return handler
}
