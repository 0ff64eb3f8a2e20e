package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/malmutairi/divvy/internal/database"
	"github.com/malmutairi/divvy/pkg/metrics"
	"github.com/malmutairi/divvy/pkg/middleware"
	"github.com/malmutairi/divvy/pkg/response"
)

// Handler handles HTTP requests for debt operations
type Handler struct {
	service *Service
}

// NewHandler creates a new ledger handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for debt endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDebts)
	r.Post("/settle", h.Settle)
	r.Get("/position", h.NetPosition)
	r.Get("/summary", h.Summary)

	return r
}

// ListDebts handles GET /debts?group_id=
// @Summary      List group debts
// @Description  Get the outstanding net debts of a group
// @Tags         debts
// @Produce      json
// @Param        group_id query int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]DebtResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /debts [get]
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	debts, err := h.service.ListDebts(r.Context(), userID, groupID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to list debts")
		}
		return
	}

	debtResponses := make([]*DebtResponse, len(debts))
	for i, debt := range debts {
		debtResponses[i] = debt.ToResponse()
	}

	response.JSON(w, http.StatusOK, debtResponses)
}

// Settle handles POST /debts/settle
// @Summary      Settle a debt
// @Description  Record a partial or full repayment towards a creditor
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        request body SettleRequest true "Settlement request"
// @Success      200 {object} response.APIResponse{data=SettleResult}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /debts/settle [post]
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.Settle(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrDebtNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, err.Error())
		case errors.Is(err, database.ErrContention):
			metrics.ContentionTotal.Inc()
			response.Conflict(w, "Settlement conflicted with a concurrent update, retry")
		default:
			response.InternalError(w, "Failed to settle debt")
		}
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// NetPosition handles GET /debts/position?group_id=
// @Summary      Get net position in a group
// @Description  Sum of what the current user owes and is owed within a group
// @Tags         debts
// @Produce      json
// @Param        group_id query int true "Group ID"
// @Success      200 {object} response.APIResponse{data=NetPosition}
// @Router       /debts/position [get]
func (h *Handler) NetPosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	position, err := h.service.NetPosition(r.Context(), groupID, userID)
	if err != nil {
		response.InternalError(w, "Failed to get net position")
		return
	}

	response.JSON(w, http.StatusOK, position)
}

// Summary handles GET /debts/summary
// @Summary      Get debt summary
// @Description  Aggregate net position across all groups for the current user
// @Tags         debts
// @Produce      json
// @Success      200 {object} response.APIResponse{data=Summary}
// @Router       /debts/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to get debt summary")
		return
	}

	response.JSON(w, http.StatusOK, summary)
}
