package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/kirapay/kirapay/internal/caution"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	"github.com/kirapay/kirapay/pkg/db/pagination"
)

type createLeaseRequest struct {
	PropertyID    string `json:"property_id" binding:"required"`
	TenantID      string `json:"tenant_id" binding:"required"`
	ManagerID     string `json:"manager_id" binding:"required"`
	MonthlyRent   int64  `json:"monthly_rent" binding:"required"`
	AdvanceMonths int    `json:"advance_months" binding:"required"`
	DepositMonths int    `json:"deposit_months" binding:"required"`
	BrokerMonths  int    `json:"broker_months"`
	StartDate     string `json:"start_date" binding:"required"`
}

func (s *Server) CreateLease(c *gin.Context) {
	var req createLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	propertyID, err := snowflake.ParseString(req.PropertyID)
	if err != nil {
		AbortWithError(c, newValidationError("property_id", "invalid_id", "invalid property id"))
		return
	}
	tenantID, err := snowflake.ParseString(req.TenantID)
	if err != nil {
		AbortWithError(c, newValidationError("tenant_id", "invalid_id", "invalid tenant id"))
		return
	}
	managerID, err := snowflake.ParseString(req.ManagerID)
	if err != nil {
		AbortWithError(c, newValidationError("manager_id", "invalid_id", "invalid manager id"))
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_date", "start_date must be YYYY-MM-DD"))
		return
	}

	item, err := s.leaseSvc.Create(c.Request.Context(), leasedomain.CreateLeaseRequest{
		PropertyID:    propertyID,
		TenantID:      tenantID,
		ManagerID:     managerID,
		MonthlyRent:   req.MonthlyRent,
		AdvanceMonths: req.AdvanceMonths,
		DepositMonths: req.DepositMonths,
		BrokerMonths:  req.BrokerMonths,
		StartDate:     startDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ListLeases(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid query"))
		return
	}

	resp, err := s.leaseSvc.List(c.Request.Context(), leasedomain.ListLeaseRequest{
		Pagination: page,
		Status:     strings.TrimSpace(c.Query("status")),
		TenantID:   strings.TrimSpace(c.Query("tenant_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Leases, "page_info": resp.PageInfo})
}

func (s *Server) GetLeaseByID(c *gin.Context) {
	id, ok := s.leaseIDParam(c)
	if !ok {
		return
	}

	item, err := s.leaseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

// GetLeaseCaution returns the caution decomposition and the derived
// payment dates for one lease.
func (s *Server) GetLeaseCaution(c *gin.Context) {
	id, ok := s.leaseIDParam(c)
	if !ok {
		return
	}

	item, err := s.leaseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	breakdown, err := item.CautionBreakdown()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{
		"breakdown":    breakdown,
		"caution_paid": item.CautionPaid,
	}
	if item.FirstRegularAt != nil {
		resp["first_regular_payment_at"] = item.FirstRegularAt.Format("2006-01-02")
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitCautionReceipt(c *gin.Context) {
	s.leaseTransition(c, s.leaseSvc.SubmitCautionReceipt)
}

func (s *Server) ConfirmCaution(c *gin.Context) {
	s.leaseTransition(c, s.leaseSvc.ConfirmCaution)
}

func (s *Server) TerminateLease(c *gin.Context) {
	s.leaseTransition(c, s.leaseSvc.Terminate)
}

type previewCautionRequest struct {
	MonthlyRent   int64 `json:"monthly_rent" binding:"required"`
	AdvanceMonths int   `json:"advance_months" binding:"required"`
	DepositMonths int   `json:"deposit_months" binding:"required"`
	BrokerMonths  int   `json:"broker_months"`
}

// PreviewCaution computes the caution decomposition for terms that are
// still being negotiated, before any lease exists.
func (s *Server) PreviewCaution(c *gin.Context) {
	var req previewCautionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	breakdown, err := caution.Compute(req.MonthlyRent, req.AdvanceMonths, req.DepositMonths, req.BrokerMonths)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": breakdown})
}

func (s *Server) leaseTransition(c *gin.Context, fn func(ctx context.Context, id snowflake.ID) (leasedomain.Lease, error)) {
	id, ok := s.leaseIDParam(c)
	if !ok {
		return
	}

	item, err := fn(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) leaseIDParam(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}
