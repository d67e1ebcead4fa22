package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iwvelando/loan-revision/internal/indexstore"
	"github.com/iwvelando/loan-revision/internal/revision"
	"github.com/iwvelando/loan-revision/pkg/constants"
	"github.com/iwvelando/loan-revision/pkg/datetime"
	"github.com/iwvelando/loan-revision/pkg/loans"
	"go.uber.org/zap"
)

// Options tunes the HTTP handler.
type Options struct {
	MaxUploadSize  int64
	Version        string
	AllowedOrigins []string
	// Invalidator, when set, drops cached index points rewritten by
	// POST /api/indices/import.
	Invalidator indexstore.Invalidator
}

type handler struct {
	service       *revision.Service
	store         indexstore.Store
	importer      *indexstore.Importer
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the revision API. Index
// lookups are served from store; service should read from the same store (or
// a cache in front of it).
func NewHandler(service *revision.Service, store indexstore.Store, logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{
		service:       service,
		store:         store,
		importer:      indexstore.NewImporter(store, logger).WithInvalidator(opts.Invalidator),
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)

		r.Post("/price", h.handleSchedule(revision.SystemPrice))
		r.Post("/mqjs", h.handleSchedule(revision.SystemMQJS))
		r.Post("/revision", h.handleRevision)

		r.Route("/indices", func(r chi.Router) {
			r.Post("/import", h.handleImport)
			r.Get("/{family}/{date}", h.handleIndexLookup)
		})
	})

	return r
}

// revisionRequest is the body of every calculation endpoint.
type revisionRequest struct {
	loans.LoanParameters
	PaidInstallments int `json:"paidInstallments"`
}

type scheduleResponse struct {
	System       revision.System              `json:"system"`
	Installments []loans.CorrectedInstallment `json:"installments"`
}

func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request, op string) (revisionRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var req revisionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return req, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return req, false
	}
	if req.RatePeriod == 0 {
		req.RatePeriod = loans.RateAnnual
	}
	return req, true
}

func (h *handler) handleSchedule(system revision.System) http.HandlerFunc {
	op := fmt.Sprintf("server.handleSchedule.%s", system)
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.decodeRequest(w, r, op)
		if !ok {
			return
		}

		var (
			schedule []loans.CorrectedInstallment
			err      error
		)
		if system == revision.SystemPrice {
			schedule, err = h.service.Price(r.Context(), req.LoanParameters)
		} else {
			schedule, err = h.service.MQJS(r.Context(), req.LoanParameters)
		}
		if err != nil {
			h.respondCalculationError(w, err, op)
			return
		}

		h.writeJSON(w, http.StatusOK, scheduleResponse{System: system, Installments: schedule})
	}
}

func (h *handler) handleRevision(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRevision"
	start := time.Now()

	req, ok := h.decodeRequest(w, r, op)
	if !ok {
		return
	}

	result, err := h.service.Calculate(r.Context(), req.LoanParameters, req.PaidInstallments)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	h.logger.Debug("revision served",
		zap.String("op", op),
		zap.String("runId", result.RunID),
		zap.String("requestId", middleware.GetReqID(r.Context())),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleIndexLookup(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleIndexLookup"

	family, err := loans.ParseIndexFamily(chi.URLParam(r, "family"))
	if err != nil || family == loans.IndexNone {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("unknown index family %q", chi.URLParam(r, "family")), op)
		return
	}
	date := chi.URLParam(r, "date")
	if _, err := datetime.ParseDate(date); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	var (
		point interface{}
		found bool
	)
	switch series := r.URL.Query().Get("series"); series {
	case "", "daily":
		point, found, err = h.store.DailyIndex(r.Context(), family, date)
	case "monthly":
		point, found, err = h.store.MonthlyIndex(r.Context(), family, date)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unknown series %q", series), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadGateway, fmt.Sprintf("index store failure: %v", err), op)
		return
	}
	if !found {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("no %s value for %s", family, date), op)
		return
	}
	h.writeJSON(w, http.StatusOK, point)
}

func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleImport"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	summary, err := h.importer.Import(r.Context(), r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
		case errors.Is(err, indexstore.ErrInvalidDocument):
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		default:
			h.respondErrorWithOp(w, http.StatusBadGateway, err.Error(), op)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": summary.Total(),
		"summary":  summary,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondCalculationError maps invalid input to 400 and everything else,
// which can only come from the index store, to 502.
func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, loans.ErrInvalidParameters) {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadGateway, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Debug("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info(fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				zap.String("op", "server.request"),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}
