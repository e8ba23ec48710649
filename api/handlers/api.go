package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/integrityline/legal-process-api/api"
	"github.com/integrityline/legal-process-api/config"
	"github.com/integrityline/legal-process-api/databases"
	"github.com/integrityline/legal-process-api/models"
	"github.com/integrityline/legal-process-api/process"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() (*mux.Router, error) {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	controller, err := process.NewController(
		databases.NewCaseDatabase(a.dbHelper),
		databases.NewActivityDatabase(a.dbHelper),
		databases.NewHolidayDatabase(a.dbHelper),
	)
	if err != nil {
		// a cyclic deadline template table is a configuration defect;
		// refuse to serve rather than fail on the first extension
		return nil, err
	}

	cp := CaseProcess{
		Controller: controller,
		DB:         databases.NewCaseDatabase(a.dbHelper),
		ADB:        databases.NewActivityDatabase(a.dbHelper),
	}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/tenant/{tenant_id}/case", api.Middleware(http.HandlerFunc(cp.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/tenant/{tenant_id}/cases", api.Middleware(http.HandlerFunc(cp.CasesByTenantHandler))).Methods("GET")
	apiCreate.Handle("/tenant/{tenant_id}/case/{case_id}", api.Middleware(http.HandlerFunc(cp.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/tenant/{tenant_id}/case/{case_id}/timeline", api.Middleware(http.HandlerFunc(cp.TimelineHandler))).Methods("GET")
	apiCreate.Handle("/tenant/{tenant_id}/case/{case_id}/stage", api.Middleware(http.HandlerFunc(cp.AdvanceStageHandler))).Methods("POST")
	apiCreate.Handle("/tenant/{tenant_id}/case/{case_id}/deadline", api.Middleware(http.HandlerFunc(cp.AddDeadlineHandler))).Methods("POST")
	apiCreate.Handle("/tenant/{tenant_id}/case/{case_id}/deadline/{deadline_id}/complete", api.Middleware(http.HandlerFunc(cp.CompleteDeadlineHandler))).Methods("PUT")
	apiCreate.Handle("/tenant/{tenant_id}/case/{case_id}/deadline/{deadline_id}/extend", api.Middleware(http.HandlerFunc(cp.ExtendDeadlineHandler))).Methods("PUT")
	apiCreate.Handle("/tenant/{tenant_id}/case/{case_id}/activities", api.Middleware(http.HandlerFunc(cp.ActivitiesByCaseHandler))).Methods("GET")

	return r, nil
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("legal-process-api has connected to the database")

	// initialize api router
	return a.initializeRoutes()
}

// DatabaseHelper exposes the connected db helper for main to wire the sweeper
func (a *App) DatabaseHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func (a *App) initializeRoutes() error {
	router, err := a.New()
	if err != nil {
		return err
	}
	a.Router = router
	return nil
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
