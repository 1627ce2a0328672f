package server

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/domain"
)

// SimulateResponse carries the deterministic projection for one plan
type SimulateResponse struct {
	PlanName string                   `json:"plan_name"`
	Summary  domain.Summary           `json:"summary"`
	Years    []config.ProjectionPoint `json:"years"`
}

// MonteCarloRequest wraps a plan with optional sampling overrides. Omitted
// fields fall back to the defaults of the plan's mode.
type MonteCarloRequest struct {
	Plan              config.Plan `json:"plan"`
	Iterations        int         `json:"iterations,omitempty"`
	Provider          string      `json:"provider,omitempty"`
	Seed              int64       `json:"seed,omitempty"`
	DisableStressTest bool        `json:"disable_stress_test,omitempty"`
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

// decodePlan parses and validates a plan payload, writing the 400 itself
// when the payload is unusable
func (s *Server) decodePlan(ctx *fasthttp.RequestCtx) (*config.Plan, bool) {
	var plan config.Plan
	if err := json.Unmarshal(ctx.PostBody(), &plan); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("invalid plan payload: %v", err))
		return nil, false
	}
	if err := s.parser.ValidatePlan(&plan); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return nil, false
	}
	return &plan, true
}

func (s *Server) handleSimulate(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	plan, ok := s.decodePlan(ctx)
	if !ok {
		return
	}

	result, err := calculation.RunSimulation(config.ToSimulationInput(plan))
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	s.writeCalculation(ctx, start, SimulateResponse{
		PlanName: plan.Name,
		Summary:  result.Summary,
		Years:    config.ToProjectionPoints(plan, result),
	})
}

func (s *Server) handleMonteCarlo(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	var req MonteCarloRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("invalid request payload: %v", err))
		return
	}
	if err := s.parser.ValidatePlan(&req.Plan); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	switch req.Provider {
	case "", calculation.ProviderFixed, calculation.ProviderHistoricalBootstrap, calculation.ProviderNormalPerturbation:
	default:
		s.writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("unknown return provider %q", req.Provider))
		return
	}

	cfg := calculation.ConfigForMode(req.Plan.Mode)
	if req.Iterations > 0 {
		cfg.Iterations = req.Iterations
	}
	if req.Provider != "" {
		cfg.Provider = req.Provider
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	cfg.DisableStressTest = req.DisableStressTest

	sim := calculation.NewMonteCarloSimulator(config.ToSimulationInput(&req.Plan), s.data, cfg)
	sim.SetLogger(s.log.Sugar())

	result, err := sim.Run()
	if err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	s.writeCalculation(ctx, start, result)
}

func (s *Server) handleCreatePlan(ctx *fasthttp.RequestCtx) {
	plan, ok := s.decodePlan(ctx)
	if !ok {
		return
	}
	stored, err := s.store.Save(plan)
	if err != nil {
		s.writeStoreError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusCreated, stored)
}

func (s *Server) handleListPlans(ctx *fasthttp.RequestCtx) {
	plans, err := s.store.List()
	if err != nil {
		s.writeStoreError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, plans)
}

func (s *Server) handleGetPlan(ctx *fasthttp.RequestCtx, id uuid.UUID) {
	stored, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, stored)
}

func (s *Server) handleUpdatePlan(ctx *fasthttp.RequestCtx, id uuid.UUID) {
	plan, ok := s.decodePlan(ctx)
	if !ok {
		return
	}
	stored, err := s.store.Update(id, plan)
	if err != nil {
		s.writeStoreError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, stored)
}

func (s *Server) handleDeletePlan(ctx *fasthttp.RequestCtx, id uuid.UUID) {
	if err := s.store.Delete(id); err != nil {
		s.writeStoreError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleActivatePlan(ctx *fasthttp.RequestCtx, id uuid.UUID) {
	stored, err := s.store.Activate(id)
	if err != nil {
		s.writeStoreError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, stored)
}

func (s *Server) handleActivePlan(ctx *fasthttp.RequestCtx) {
	stored, err := s.store.ActivePlan()
	if err != nil {
		s.writeStoreError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, stored)
}
