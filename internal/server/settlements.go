package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"github.com/gin-gonic/gin"
)

type createSettlementRequest struct {
	ProfessionalID string `json:"professional_id"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	Notes          string `json:"notes"`
}

type generateSettlementsRequest struct {
	PeriodStart     string   `json:"period_start"`
	PeriodEnd       string   `json:"period_end"`
	ProfessionalIDs []string `json:"professional_ids"`
}

type markPaidRequest struct {
	PaymentReference string `json:"payment_reference"`
}

type cancelSettlementRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CreateSettlement(c *gin.Context) {
	var req createSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.Create(c.Request.Context(), settlementdomain.CreateSettlementRequest{
		ProfessionalID: strings.TrimSpace(req.ProfessionalID),
		PeriodStart:    strings.TrimSpace(req.PeriodStart),
		PeriodEnd:      strings.TrimSpace(req.PeriodEnd),
		Notes:          req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSettlements(c *gin.Context) {
	var query settlementdomain.ListSettlementRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Settlements, "page_info": resp.PageInfo})
}

func (s *Server) GetSettlement(c *gin.Context) {
	resp, err := s.settlementSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSettlement(c *gin.Context) {
	if err := s.settlementSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RecomputeSettlement(c *gin.Context) {
	resp, err := s.settlementSvc.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveSettlement(c *gin.Context) {
	resp, err := s.settlementSvc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkSettlementPaid(c *gin.Context) {
	var req markPaidRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := s.settlementSvc.MarkPaid(c.Request.Context(), c.Param("id"), settlementdomain.MarkPaidRequest{
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelSettlement(c *gin.Context) {
	var req cancelSettlementRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := s.settlementSvc.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GenerateSettlements(c *gin.Context) {
	var req generateSettlementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.GenerateForPeriod(c.Request.Context(), settlementdomain.GenerateRequest{
		PeriodStart:     strings.TrimSpace(req.PeriodStart),
		PeriodEnd:       strings.TrimSpace(req.PeriodEnd),
		ProfessionalIDs: req.ProfessionalIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SettlementReport(c *gin.Context) {
	var query settlementdomain.ReportRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.Report(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// bindOptionalJSON accepts an empty body; a present body must be valid JSON.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return false
	}
	return true
}
