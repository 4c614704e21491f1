package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/obralink/portal-pagos/internal/application/service"
	"github.com/obralink/portal-pagos/internal/auth"
	"github.com/obralink/portal-pagos/internal/domain/approval"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	statementService service.StatementService
	decisionService  service.DecisionService
	exportService    service.ExportService
	logger           Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	statementService service.StatementService,
	decisionService service.DecisionService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		statementService: statementService,
		decisionService:  decisionService,
		exportService:    exportService,
		logger:           logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// StatementResponse represents a payment statement in API responses
type StatementResponse struct {
	ID                string             `json:"id"`
	ProjectID         string             `json:"project_id"`
	Period            string             `json:"period"`
	Total             string             `json:"total"`
	ProgressPercent   float64            `json:"progress_percent"`
	Completed         bool               `json:"completed"`
	ExpiryDate        string             `json:"expiry_date"`
	Status            string             `json:"status"`
	RequiredApprovers []ApproverResponse `json:"required_approvers,omitempty"`
	CreatedAt         string             `json:"created_at"`
	UpdatedAt         string             `json:"updated_at"`
}

// ApproverResponse represents a required approver in API responses
type ApproverResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// TransitionResponse reports a lifecycle transition and its notification
// outcome
type TransitionResponse struct {
	Transitioned bool   `json:"transitioned"`
	Status       string `json:"status"`
	Notified     bool   `json:"notified"`
	NotifyError  string `json:"notify_error,omitempty"`
}

// DecisionResponse reports a recorded decision and the resulting aggregate
type DecisionResponse struct {
	Status        string `json:"status"`
	ApprovedCount int    `json:"approved_count"`
	RequiredCount int    `json:"required_count"`
	Notified      bool   `json:"notified"`
	NotifyError   string `json:"notify_error,omitempty"`
}

// UpdateFinancialsRequest is the body for PUT /statements/:id/financials
type UpdateFinancialsRequest struct {
	Total           string  `json:"total" binding:"required"`
	ProgressPercent float64 `json:"progress_percent"`
}

// DecisionRequest is the body for POST /statements/:id/decision
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

// RosterRequest is the body for PUT /projects/:projectId/approvers
type RosterRequest struct {
	Approvers []RosterApproverRequest `json:"approvers" binding:"required"`
}

// RosterApproverRequest is one approver in a roster replacement
type RosterApproverRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListStatements handles GET /api/projects/:projectId/statements
func (h *Handlers) ListStatements(c *gin.Context) {
	projectID := c.Param("projectId")

	statements, err := h.statementService.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]StatementResponse, 0, len(statements))
	for _, st := range statements {
		responses = append(responses, toStatementResponse(st))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// GetStatement handles GET /api/statements/:id
func (h *Handlers) GetStatement(c *gin.Context) {
	st, err := h.statementService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toStatementResponse(st)})
}

// PendingApprovers handles GET /api/statements/:id/approvers
func (h *Handlers) PendingApprovers(c *gin.Context) {
	progress, err := h.statementService.PendingApprovers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: progress})
}

// ExportStatement handles GET /api/statements/:id/export
func (h *Handlers) ExportStatement(c *gin.Context) {
	id := c.Param("id")

	workbook, err := h.exportService.ExportStatement(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("estado-de-pago-%s.xlsx", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

// UpdateFinancials handles PUT /api/statements/:id/financials
func (h *Handlers) UpdateFinancials(c *gin.Context) {
	var req UpdateFinancialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid total amount"})
		return
	}

	st, err := h.statementService.UpdateFinancials(c.Request.Context(), c.Param("id"), total, req.ProgressPercent)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toStatementResponse(st)})
}

// MarkSent handles POST /api/statements/:id/send
func (h *Handlers) MarkSent(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)

	result, err := h.statementService.MarkSent(c.Request.Context(), c.Param("id"), actor.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toTransitionResponse(result)})
}

// Resubmit handles POST /api/statements/:id/resubmit
func (h *Handlers) Resubmit(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)

	result, err := h.statementService.Resubmit(c.Request.Context(), c.Param("id"), actor.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toTransitionResponse(result)})
}

// ReplaceRoster handles PUT /api/projects/:projectId/approvers. The new
// roster only feeds the next send cycle.
func (h *Handlers) ReplaceRoster(c *gin.Context) {
	var req RosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	approvers := make([]statement.Approver, len(req.Approvers))
	for i, a := range req.Approvers {
		approvers[i] = statement.Approver{Email: a.Email, Name: a.Name}
	}

	replaced, err := h.statementService.UpdateRoster(c.Request.Context(), c.Param("projectId"), approvers)
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]ApproverResponse, len(replaced))
	for i, a := range replaced {
		responses[i] = ApproverResponse{Email: a.Email, Name: a.Name, Order: a.Order}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// RecordDecision handles POST /api/statements/:id/decision. The approver
// identity comes from the resolved token, never from the body.
func (h *Handlers) RecordDecision(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	actor, _ := auth.ActorFrom(c)

	result, err := h.decisionService.RecordDecision(
		c.Request.Context(),
		c.Param("id"),
		actor.Email,
		approval.Decision(req.Decision),
		req.Reason,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: DecisionResponse{
		Status:        result.AggregateStatus.String(),
		ApprovedCount: result.ApprovedCount,
		RequiredCount: result.RequiredCount,
		Notified:      result.Notified,
		NotifyError:   result.NotifyError,
	}})
}

// respondError maps domain errors onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, statement.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, statement.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, statement.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, statement.ErrInvalidState), errors.Is(err, statement.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, statement.ErrDependencyFailure):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func toStatementResponse(st *statement.PaymentStatement) StatementResponse {
	approvers := make([]ApproverResponse, 0, len(st.RequiredApprovers))
	for _, a := range st.RequiredApprovers {
		approvers = append(approvers, ApproverResponse{Email: a.Email, Name: a.Name, Order: a.Order})
	}

	return StatementResponse{
		ID:                st.ID,
		ProjectID:         st.ProjectID,
		Period:            st.Period.String(),
		Total:             st.Total.String(),
		ProgressPercent:   st.ProgressPercent,
		Completed:         st.Completed,
		ExpiryDate:        st.ExpiryDate.UTC().Format(time.RFC3339),
		Status:            st.Status.String(),
		RequiredApprovers: approvers,
		CreatedAt:         st.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         st.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransitionResponse(result *service.TransitionResult) TransitionResponse {
	return TransitionResponse{
		Transitioned: result.Transitioned,
		Status:       result.NewStatus.String(),
		Notified:     result.Notified,
		NotifyError:  result.NotifyError,
	}
}
