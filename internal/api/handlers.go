package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"strategy-journal/internal/journal"
	"strategy-journal/internal/metrics"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// Handler serves the journal endpoints.
type Handler struct {
	svc      *journal.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a handler over svc.
func NewHandler(svc *journal.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, validate: newValidator(), logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
}

// EvaluateLegs returns the bet-level totals for a leg list without storing it.
func (h *Handler) EvaluateLegs(w http.ResponseWriter, r *http.Request) {
	var req evaluateLegsRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newLegSummaryResponse(h.svc.EvaluateLegs(legInputs(req.Legs))))
}

// ListStrategies supports ?user=&market=&sort=&order=asc|desc.
func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := journal.ListOptions{
		UserID:     q.Get("user"),
		MarketType: q.Get("market"),
		SortBy:     q.Get("sort"),
	}
	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
	case "asc":
		opts.Ascending = true
	default:
		respondError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}

	list, err := h.svc.ListStrategies(r.Context(), opts)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req createStrategyRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.svc.CreateStrategy(r.Context(), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, st)
}

func (h *Handler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStrategy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h *Handler) UpdateStrategy(w http.ResponseWriter, r *http.Request) {
	var req updateStrategyRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name: must not be empty")
		return
	}
	st, err := h.svc.UpdateStrategy(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h *Handler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteStrategy(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListBets(w http.ResponseWriter, r *http.Request) {
	bets, err := h.svc.ListBets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(bets))
}

func (h *Handler) CreateBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.CreateBet(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newMutationResponse(res))
}

func (h *Handler) GetBet(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (h *Handler) UpdateBet(w http.ResponseWriter, r *http.Request) {
	var req updateBetRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Legs != nil && len(req.Legs) == 0 {
		respondError(w, http.StatusBadRequest, "legs: a bet needs at least one leg")
		return
	}
	res, err := h.svc.UpdateBet(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newMutationResponse(res))
}

func (h *Handler) DeleteBet(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DeleteBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newMutationResponse(res))
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroups(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(groups))
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.CreateGroup(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newMutationResponse(res))
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req updateGroupRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.UpdateGroup(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newMutationResponse(res))
}

// DeleteGroup removes a group and every child bet.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DeleteGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newMutationResponse(res))
}

// AddGroupBet creates a child bet under the group in the path.
func (h *Handler) AddGroupBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.AddGroupBet(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newMutationResponse(res))
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMetrics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// RecomputeMetrics forces a full recomputation. Sink failures are reported
// in the body next to the computed record.
func (h *Handler) RecomputeMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.RecomputeMetrics(r.Context(), chi.URLParam(r, "id"))
	var perr *metrics.PersistError
	if err != nil && !errors.As(err, &perr) {
		h.respondServiceError(w, r, err)
		return
	}
	resp := mutationResponse{Metrics: m}
	if perr != nil {
		resp.MetricsError = perr.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

// MetricsHistory supports ?limit=n (default 100, max 1000).
func (h *Handler) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	snaps, err := h.svc.MetricsHistory(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(snaps))
}

func (h *Handler) PnLSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.svc.PnLSeries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(series))
}
