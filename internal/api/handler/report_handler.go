package handler

import (
	"net/http"
	"wastewise/internal/api/middleware"
	"wastewise/internal/app/service"
	"wastewise/internal/common"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.MinistryOnly)
	r.Get("/requests-by-status", h.requestsByStatus)
	r.Get("/segregation-totals", h.segregationTotals)
	r.Get("/recycling-output", h.recyclingOutput)
}

func (h *ReportHandler) requestsByStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	counts, err := h.reportService.RequestsByStatus(r.Context(), identity)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, counts)
}

func (h *ReportHandler) segregationTotals(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	totals, err := h.reportService.SegregationTotals(r.Context(), identity)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, totals)
}

func (h *ReportHandler) recyclingOutput(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	outputs, err := h.reportService.RecyclingOutputByMaterial(r.Context(), identity)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, outputs)
}
