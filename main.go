package main

import (
	"log"
	"net/http"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/config"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/database"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/handlers"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	if err := database.Init(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize services
	timerService := services.NewTimerService(database.GetDB())
	importService := services.NewImportService(database.GetDB())
	exportService := services.NewExportService()

	// Initialize handlers
	customerHandler := handlers.NewCustomerHandler()
	projectHandler := handlers.NewProjectHandler()
	taskHandler := handlers.NewTaskHandler()
	timeEntryHandler := handlers.NewTimeEntryHandler(timerService)
	importHandler := handlers.NewImportHandler(importService)
	exportHandler := handlers.NewExportHandler(timerService, exportService)

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customerHandler.List)
			r.Post("/", customerHandler.Create)
			r.Get("/{id}", customerHandler.Get)
			r.Put("/{id}", customerHandler.Update)
			r.Delete("/{id}", customerHandler.Delete)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)
			r.Get("/{id}", projectHandler.Get)
			r.Put("/{id}", projectHandler.Update)
			r.Delete("/{id}", projectHandler.Delete)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})

		r.Route("/time-entries", func(r chi.Router) {
			r.Get("/", timeEntryHandler.List)
			r.Post("/", timeEntryHandler.Create)
			r.Get("/running", timeEntryHandler.Running)
			r.Post("/start", timeEntryHandler.Start)
			r.Get("/daily-totals", timeEntryHandler.DailyTotals)
			r.Get("/weekly-totals", timeEntryHandler.WeeklyTotals)
			r.Get("/{id}", timeEntryHandler.Get)
			r.Put("/{id}", timeEntryHandler.Update)
			r.Delete("/{id}", timeEntryHandler.Delete)
			r.Post("/{id}/stop", timeEntryHandler.Stop)
			r.Post("/{id}/restart", timeEntryHandler.Restart)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/tasks", importHandler.ImportTasks)
			r.Get("/tasks/template", importHandler.Template)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/csv", exportHandler.ExportCSV)
			r.Get("/xlsx", exportHandler.ExportXLSX)
		})
	})

	log.Printf("Server starting on port %s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, router))
}
