package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	configdomain "github.com/kirapay/kirapay/internal/distributionconfig/domain"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
	"go.uber.org/zap"
)

type initiateCautionRequest struct {
	LeaseID    string `json:"lease_id" binding:"required"`
	PayerPhone string `json:"payer_phone" binding:"required"`
	Method     string `json:"method" binding:"required"`
}

func (s *Server) InitiateCautionPayment(c *gin.Context) {
	var req initiateCautionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	leaseID, err := snowflake.ParseString(req.LeaseID)
	if err != nil {
		AbortWithError(c, newValidationError("lease_id", "invalid_id", "invalid lease id"))
		return
	}

	payment, err := s.paymentSvc.InitiateCautionPayment(c.Request.Context(), paymentdomain.InitiateCautionRequest{
		LeaseID:    leaseID,
		PayerPhone: req.PayerPhone,
		Method:     req.Method,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": payment})
}

type initiateRentRequest struct {
	PayerPhone string `json:"payer_phone" binding:"required"`
	Method     string `json:"method" binding:"required"`
}

// InitiateRentPayment charges the tenant for the pending rent invoice
// identified in the path. The gateway webhook settles it later.
func (s *Server) InitiateRentPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req initiateRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	payment, err := s.paymentSvc.InitiateRentPayment(c.Request.Context(), paymentdomain.InitiateRentRequest{
		PaymentID:  paymentID,
		PayerPhone: req.PayerPhone,
		Method:     req.Method,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": payment})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	payment, err := s.paymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

type paymentWebhookRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Status        string `json:"status" binding:"required"`
	SettledAt     string `json:"settled_at"`
}

// PaymentWebhook is the mobile-money gateway callback. A successful
// charge settles the payment and immediately computes its distribution;
// replays are absorbed by the settlement and distribution idempotency.
func (s *Server) PaymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case "success", "settled":
		var settledAt time.Time
		if raw := strings.TrimSpace(req.SettledAt); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				AbortWithError(c, newValidationError("settled_at", "invalid_date", "settled_at must be RFC3339"))
				return
			}
			settledAt = parsed
		}

		payment, err := s.paymentSvc.RecordSettlement(c.Request.Context(), paymentdomain.SettlementRequest{
			ExternalTxnID: req.TransactionID,
			SettledAt:     settledAt,
		})
		if err != nil {
			// a replay for a period that settled through another payment
			if errors.Is(err, paymentdomain.ErrAlreadySettled) {
				c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "ignored"}})
				return
			}
			AbortWithError(c, err)
			return
		}

		if _, err := s.distributionSvc.Calculate(c.Request.Context(), payment.ID); err != nil {
			// settlement stands either way; a missing config is resolved
			// by recalculating once the manager configures recipients
			if !errors.Is(err, configdomain.ErrConfigMissing) {
				AbortWithError(c, err)
				return
			}
			s.log.Warn("distribution deferred, config missing",
				zap.String("payment_id", payment.ID.String()),
			)
		}

		c.JSON(http.StatusOK, gin.H{"data": payment})

	case "failed":
		payment, err := s.paymentSvc.RecordFailure(c.Request.Context(), req.TransactionID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": payment})

	default:
		AbortWithError(c, newValidationError("status", "invalid_status", "status must be success or failed"))
	}
}
