package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/malmutairi/divvy/docs"
	"github.com/malmutairi/divvy/internal/activity"
	"github.com/malmutairi/divvy/internal/config"
	"github.com/malmutairi/divvy/internal/database"
	"github.com/malmutairi/divvy/internal/expense"
	"github.com/malmutairi/divvy/internal/expense/split"
	"github.com/malmutairi/divvy/internal/group"
	"github.com/malmutairi/divvy/internal/ledger"
	"github.com/malmutairi/divvy/pkg/logging"
	"github.com/malmutairi/divvy/pkg/metrics"
	mw "github.com/malmutairi/divvy/pkg/middleware"
)

// @title           Divvy API
// @version         1.0
// @description     Group expense splitting with netted debt tracking.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.LockTimeout)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready")

	jwtManager := mw.NewJWTManager(cfg.JWTSecret)
	splitFactory := split.NewFactory()

	// Group feature owns membership; the other features consume it through
	// their Membership interfaces.
	groupRepo := group.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	activityService := activity.NewService(activityRepo, groupRepo)
	activityHandler := activity.NewHandler(activityService)

	groupService := group.NewService(db, groupRepo, activityRepo)
	groupHandler := group.NewHandler(groupService)

	ledgerRepo := ledger.NewRepository(db)
	ledgerService := ledger.NewService(db, ledgerRepo, groupRepo, activityRepo)
	ledgerHandler := ledger.NewHandler(ledgerService)

	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(db, expenseRepo, groupRepo, activityRepo, splitFactory)
	expenseHandler := expense.NewHandler(expenseService)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(logging.RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(jwtManager))

		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/debts", ledgerHandler.Routes())
		r.Mount("/activity", activityHandler.Routes())
	})

	slog.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
