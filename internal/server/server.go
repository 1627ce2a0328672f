// Package server exposes the projection engine over HTTP for the web UI.
package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/store"
)

const apiPrefix = "/api/v1"

// Server routes plan CRUD and calculation requests to the engine
type Server struct {
	store  *store.PlanStore
	parser *config.InputParser
	data   *calculation.HistoricalReturns
	log    *zap.Logger
	http   *fasthttp.Server
}

// New builds a server around the given plan store. Historical return data
// is loaded once here and shared by every Monte Carlo request.
func New(planStore *store.PlanStore, log *zap.Logger) (*Server, error) {
	data, err := calculation.LoadEmbeddedReturns()
	if err != nil {
		return nil, fmt.Errorf("load historical returns: %w", err)
	}

	s := &Server{
		store:  planStore,
		parser: config.NewInputParser(),
		data:   data,
		log:    log,
	}
	s.http = &fasthttp.Server{
		Handler:            s.route,
		Name:               "networth-engine",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       2 * time.Minute,
		MaxRequestBodySize: 4 << 20,
	}
	return s, nil
}

// ListenAndServe blocks serving requests until Shutdown is called
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.http.ListenAndServe(addr)
}

// Shutdown stops the server, waiting for in-flight requests to finish
func (s *Server) Shutdown() error {
	return s.http.Shutdown()
}

// route dispatches on method and path
func (s *Server) route(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/healthz" && method == fasthttp.MethodGet:
		s.handleHealth(ctx)
	case path == apiPrefix+"/simulate" && method == fasthttp.MethodPost:
		s.handleSimulate(ctx)
	case path == apiPrefix+"/montecarlo" && method == fasthttp.MethodPost:
		s.handleMonteCarlo(ctx)
	case path == apiPrefix+"/plans" && method == fasthttp.MethodGet:
		s.handleListPlans(ctx)
	case path == apiPrefix+"/plans" && method == fasthttp.MethodPost:
		s.handleCreatePlan(ctx)
	case path == apiPrefix+"/plans/active" && method == fasthttp.MethodGet:
		s.handleActivePlan(ctx)
	case strings.HasPrefix(path, apiPrefix+"/plans/"):
		s.routePlan(ctx, strings.TrimPrefix(path, apiPrefix+"/plans/"), method)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, "not found")
	}

	s.log.Info("http request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// routePlan handles the /plans/{id} sub-tree
func (s *Server) routePlan(ctx *fasthttp.RequestCtx, rest, method string) {
	activate := false
	if strings.HasSuffix(rest, "/activate") {
		rest = strings.TrimSuffix(rest, "/activate")
		activate = true
	}

	id, err := uuid.Parse(rest)
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("invalid plan id %q", rest))
		return
	}

	switch {
	case activate && method == fasthttp.MethodPost:
		s.handleActivatePlan(ctx, id)
	case !activate && method == fasthttp.MethodGet:
		s.handleGetPlan(ctx, id)
	case !activate && method == fasthttp.MethodPut:
		s.handleUpdatePlan(ctx, id)
	case !activate && method == fasthttp.MethodDelete:
		s.handleDeletePlan(ctx, id)
	default:
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
	}
}

// CalculationEnvelope wraps every calculation response so the UI can
// correlate results with the request that produced them
type CalculationEnvelope struct {
	CalculationID string      `json:"calculation_id"`
	ElapsedMs     int64       `json:"elapsed_ms"`
	Result        interface{} `json:"result"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal response", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(body)
}

func (s *Server) writeCalculation(ctx *fasthttp.RequestCtx, start time.Time, result interface{}) {
	s.writeJSON(ctx, fasthttp.StatusOK, CalculationEnvelope{
		CalculationID: uuid.New().String(),
		ElapsedMs:     time.Since(start).Milliseconds(),
		Result:        result,
	})
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	s.writeJSON(ctx, status, ErrorResponse{Status: status, Message: message})
}

// writeStoreError maps store sentinel errors onto HTTP status codes
func (s *Server) writeStoreError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, store.ErrPlanNotFound):
		s.writeError(ctx, fasthttp.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateName):
		s.writeError(ctx, fasthttp.StatusConflict, err.Error())
	default:
		s.log.Error("plan store", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "plan store failure")
	}
}
