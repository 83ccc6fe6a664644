package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/practice-scheduler/internal/api"
	apiMiddleware "github.com/phrazzld/practice-scheduler/internal/api/middleware"
)

// setupRouter creates the application router with every route and its
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	ruleHandler := api.NewRuleHandler(app.ruleService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	automationHandler := api.NewAutomationHandler(app.trigger, app.lastRun, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/automation/run", automationHandler.RunCycle)
		r.Get("/automation/last-run", automationHandler.LastRun)

		r.Route("/recurring-rules", func(r chi.Router) {
			r.Get("/", ruleHandler.ListRules)
			r.Post("/", ruleHandler.CreateRule)
			r.Get("/{id}", ruleHandler.GetRule)
			r.Put("/{id}", ruleHandler.UpdateRule)
			r.Delete("/{id}", ruleHandler.DeactivateRule)
			r.Post("/{id}/deactivate", ruleHandler.DeactivateRule)
			r.Get("/{id}/tasks", ruleHandler.ListRuleTasks)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/{id}", taskHandler.GetTask)
			r.Put("/{id}/status", taskHandler.UpdateStatus)
			r.Get("/{id}/reminders", taskHandler.ListReminders)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
