package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/workflow"
)

// maxBodyBytes bounds JSON request bodies; imports get maxUploadBytes.
const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 32 << 20
)

// Options configures the router.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	ServiceName    string
}

type server struct {
	mgr    *workflow.Manager
	logger *slog.Logger
}

// NewRouter builds the HTTP handler for the catalog API.
func NewRouter(mgr *workflow.Manager, opts Options) http.Handler {
	logger := logging.NewComponentLogger(opts.Logger, "http-api")
	s := &server{mgr: mgr, logger: logger}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "curator"
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	})

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Post("/archive", s.handleArchiveProject)
			r.Get("/products", s.handleListProducts)
			r.Post("/products", s.handleCreateProduct)
			r.Post("/products/import", s.handleImportProducts)
			r.Post("/pipeline/run", s.handleRunProject)
			r.Get("/queue", s.handleListQueue)
			r.Get("/queue/stats", s.handleQueueStats)
			r.Get("/targets", s.handleListTargets)
			r.Post("/targets", s.handleCreateTarget)
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/export.xlsx", s.handleExportXLSX)
		})

		r.Post("/pipeline/run", s.handleRunPipeline)

		r.Patch("/queue/{itemID}", s.handleSetStatus)
		r.Post("/queue/bulk-approve", s.handleBulkApprove)

		r.Post("/targets/{targetID}/publish", s.handlePublish)
		r.Post("/targets/{targetID}/publish-approved", s.handlePublishApproved)
		r.Get("/targets/{targetID}/history", s.handleHistory)
	})
	return r
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a services error marker to an HTTP status.
func (s *server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "request_failure",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch services.Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "validation":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
