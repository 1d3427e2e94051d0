package dispatch

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saimali7/tour-crm/pkg/common"
	"github.com/saimali7/tour-crm/pkg/middleware"
)

// Handler handles dispatch HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates a new dispatch handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers dispatch routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	dispatch := r.Group("/api/v1/dispatch")
	dispatch.Use(middleware.AuthMiddleware(jwtSecret))
	{
		dispatch.GET("/status", h.GetDispatchStatus)
		dispatch.GET("/tour-runs", h.GetTourRuns)
		dispatch.GET("/guides", h.GetAvailableGuides)
		dispatch.GET("/timelines", h.GetGuideTimelines)

		dispatch.POST("/optimize", h.Optimize)
		dispatch.POST("/batch", h.BatchApplyChanges)
		dispatch.POST("/assignments", h.ManualAssign)
		dispatch.DELETE("/assignments/:booking_id", h.Unassign)
		dispatch.PUT("/assignments/pickup-time", h.UpdatePickupTime)
		dispatch.POST("/tour-runs/outsourced", h.AddOutsourcedGuide)
		dispatch.POST("/guides/temp", h.CreateTempGuide)
		dispatch.POST("/warnings/:warning_id/resolve", h.ResolveWarning)
		dispatch.POST("/dispatch", h.Dispatch)
	}
}

// dateParam reads the ?date= query parameter, normalized to the tenant's
// operational day. A missing date defaults to today.
func (h *Handler) dateParam(c *gin.Context) (string, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.service.TodayKey(), true
	}
	date, err := h.service.NormalizeDateKey(raw)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return date, true
}

func respondError(c *gin.Context, err error) {
	if appErr, ok := common.AsAppError(err); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}

// GetDispatchStatus handles GET /api/v1/dispatch/status?date=
func (h *Handler) GetDispatchStatus(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	status, err := h.service.GetDispatchStatus(c.Request.Context(), orgID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, status)
}

// GetTourRuns handles GET /api/v1/dispatch/tour-runs?date=
func (h *Handler) GetTourRuns(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	runs, err := h.service.GetTourRuns(c.Request.Context(), orgID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, runs)
}

// GetAvailableGuides handles GET /api/v1/dispatch/guides?date=
func (h *Handler) GetAvailableGuides(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	guides, err := h.service.GetAvailableGuides(c.Request.Context(), orgID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, guides)
}

// GetGuideTimelines handles GET /api/v1/dispatch/timelines?date=
func (h *Handler) GetGuideTimelines(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	timelines, err := h.service.GetGuideTimelines(c.Request.Context(), orgID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, timelines)
}

// Optimize handles POST /api/v1/dispatch/optimize
func (h *Handler) Optimize(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Optimize(c.Request.Context(), orgID, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, result)
}

// BatchApplyChanges handles POST /api/v1/dispatch/batch
func (h *Handler) BatchApplyChanges(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.BatchApplyChanges(c.Request.Context(), orgID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, result)
}

// ManualAssign handles POST /api/v1/dispatch/assignments
func (h *Handler) ManualAssign(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ManualAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ManualAssign(c.Request.Context(), orgID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, result)
}

// Unassign handles DELETE /api/v1/dispatch/assignments/:booking_id
func (h *Handler) Unassign(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	result, err := h.service.Unassign(c.Request.Context(), orgID, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, result)
}

// UpdatePickupTime handles PUT /api/v1/dispatch/assignments/pickup-time
func (h *Handler) UpdatePickupTime(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdatePickupTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.service.UpdatePickupTime(c.Request.Context(), orgID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, status)
}

// AddOutsourcedGuide handles POST /api/v1/dispatch/tour-runs/outsourced
func (h *Handler) AddOutsourcedGuide(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddOutsourcedGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.service.AddOutsourcedGuideToRun(c.Request.Context(), orgID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, status)
}

// CreateTempGuide handles POST /api/v1/dispatch/guides/temp
func (h *Handler) CreateTempGuide(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateTempGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	guide, err := h.service.CreateTempGuideForDate(c.Request.Context(), orgID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponseWithStatus(c, http.StatusCreated, guide, "temp guide created")
}

// ResolveWarning handles POST /api/v1/dispatch/warnings/:warning_id/resolve
func (h *Handler) ResolveWarning(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	warningID, err := uuid.Parse(c.Param("warning_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid warning ID")
		return
	}

	var req ResolveWarningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.service.ResolveWarning(c.Request.Context(), orgID, warningID, req.Resolution)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, status)
}

// Dispatch handles POST /api/v1/dispatch/dispatch
func (h *Handler) Dispatch(c *gin.Context) {
	orgID, err := middleware.GetOrgID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Dispatch(c.Request.Context(), orgID, userID, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, result)
}
