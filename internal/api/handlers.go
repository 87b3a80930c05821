package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/jfuentes/portfolio-tracker/internal/advisor"
	"github.com/jfuentes/portfolio-tracker/internal/models"
	"github.com/jfuentes/portfolio-tracker/internal/portfolio"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service *portfolio.Service
	advisor *advisor.Client
}

// NewHandler creates a new Handler
func NewHandler(service *portfolio.Service, advisorClient *advisor.Client) *Handler {
	return &Handler{
		service: service,
		advisor: advisorClient,
	}
}

// GetPositions handles GET /positions
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions := h.service.ListPositions()
	if positions == nil {
		positions = []models.Position{}
	}
	respondJSON(w, http.StatusOK, positions)
}

// AddPosition handles POST /positions
func (h *Handler) AddPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker        string `json:"ticker"`
		Shares        string `json:"shares"`
		PurchasePrice string `json:"purchase_price"`
		AssetClass    string `json:"asset_class"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pos, err := h.service.AddPosition(r.Context(), req.Ticker, req.Shares, req.PurchasePrice, models.AssetClass(req.AssetClass))
	if err != nil {
		if errors.Is(err, models.ErrInvalidPosition) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, pos)
}

// RemovePosition handles DELETE /positions/{id}
func (h *Handler) RemovePosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.service.RemovePosition(r.Context(), vars["id"])
	w.WriteHeader(http.StatusNoContent)
}

// ClearPositions handles DELETE /positions
func (h *Handler) ClearPositions(w http.ResponseWriter, r *http.Request) {
	h.service.ClearPortfolio(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// metricsResponse extends the snapshot with the derived views consumers
// render alongside it. Performer fields are omitted entirely when no holding
// has change data, so clients can tell "no data" from a flat 0%.
type metricsResponse struct {
	*portfolio.MetricsSnapshot
	BestPerformer   *portfolio.PositionMetrics            `json:"best_performer,omitempty"`
	WorstPerformer  *portfolio.PositionMetrics            `json:"worst_performer,omitempty"`
	AssetAllocation map[models.AssetClass]decimal.Decimal `json:"asset_allocation"`
}

// GetMetrics handles GET /metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Metrics()

	resp := metricsResponse{
		MetricsSnapshot: snap,
		AssetAllocation: snap.AssetAllocation(),
	}
	if best, worst, ok := snap.BestWorst(); ok {
		resp.BestPerformer = &best
		resp.WorstPerformer = &worst
	}

	respondJSON(w, http.StatusOK, resp)
}

// RefreshPrices handles POST /refresh
func (h *Handler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RefreshPrices(r.Context())
	if err != nil {
		if errors.Is(err, portfolio.ErrRefreshInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ClearPriceData handles POST /cache/clear
func (h *Handler) ClearPriceData(w http.ResponseWriter, r *http.Request) {
	h.service.ClearPriceData(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, filename := h.service.Export()
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	respondJSON(w, http.StatusOK, doc)
}

// Import handles POST /import?mode=replace|merge
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = portfolio.ImportReplace
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	imported, err := h.service.Import(r.Context(), data, mode)
	if err != nil {
		if errors.Is(err, portfolio.ErrInvalidImport) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{
		"imported": imported,
		"total":    len(h.service.ListPositions()),
	})
}

// Chat handles POST /api/chat: the proxy boundary that keeps the model API
// key off the client. Field names mirror the client contract.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SystemPrompt string `json:"systemPrompt"`
		UserPrompt   string `json:"userPrompt"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SystemPrompt == "" || req.UserPrompt == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}

	if !h.advisor.Configured() {
		respondJSON(w, http.StatusOK, map[string]string{"response": advisor.CannedResponse()})
		return
	}

	text, err := h.advisor.Complete(r.Context(), req.SystemPrompt, req.UserPrompt)
	if err != nil {
		var upstream *advisor.UpstreamError
		if errors.As(err, &upstream) {
			respondJSON(w, upstream.Status, map[string]string{"error": upstream.Message})
			return
		}
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"response": text})
}

// Advise handles POST /advise: builds the portfolio context server-side from
// a fresh metrics snapshot and forwards the user's question.
func (h *Handler) Advise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SystemPrompt string `json:"systemPrompt"`
		Question     string `json:"question"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Question == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	userPrompt := advisor.BuildUserPrompt(h.service.Metrics(), req.Question)

	if !h.advisor.Configured() {
		respondJSON(w, http.StatusOK, map[string]string{"response": advisor.CannedResponse()})
		return
	}

	text, err := h.advisor.Complete(r.Context(), req.SystemPrompt, userPrompt)
	if err != nil {
		var upstream *advisor.UpstreamError
		if errors.As(err, &upstream) {
			respondJSON(w, upstream.Status, map[string]string{"error": upstream.Message})
			return
		}
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"response": text})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
