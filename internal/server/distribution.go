package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	distributiondomain "github.com/kirapay/kirapay/internal/distribution/domain"
	configdomain "github.com/kirapay/kirapay/internal/distributionconfig/domain"
	"github.com/kirapay/kirapay/internal/spacectx"
)

func (s *Server) GetDistributionByPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	dist, err := s.distributionSvc.GetByPaymentID(c.Request.Context(), paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dist})
}

type recipientActionRequest struct {
	Kind       string `json:"kind" binding:"required"`
	TransferID string `json:"transfer_id"`
}

// DisburseRecipient pushes one recipient's share through the payout
// gateway. Each recipient settles on its own; the others keep their
// current status.
func (s *Server) DisburseRecipient(c *gin.Context) {
	distributionID, kind, _, ok := s.recipientAction(c)
	if !ok {
		return
	}

	recipient, err := s.distributionSvc.Disburse(c.Request.Context(), distributionID, kind)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": recipient})
}

// MarkRecipientSent records a transfer the manager made outside the
// platform, for example a cash handover.
func (s *Server) MarkRecipientSent(c *gin.Context) {
	distributionID, kind, transferID, ok := s.recipientAction(c)
	if !ok {
		return
	}

	recipient, err := s.distributionSvc.MarkRecipientSent(c.Request.Context(), distributionID, kind, transferID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": recipient})
}

func (s *Server) recipientAction(c *gin.Context) (snowflake.ID, distributiondomain.RecipientKind, string, bool) {
	distributionID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, "", "", false
	}

	var req recipientActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return 0, "", "", false
	}

	kind := distributiondomain.RecipientKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	switch kind {
	case distributiondomain.RecipientOwner, distributiondomain.RecipientManager, distributiondomain.RecipientBroker:
	default:
		AbortWithError(c, newValidationError("kind", "invalid_kind", "kind must be owner, manager or broker"))
		return 0, "", "", false
	}

	return distributionID, kind, strings.TrimSpace(req.TransferID), true
}

func (s *Server) GetDistributionConfig(c *gin.Context) {
	spaceID, _ := spacectx.SpaceIDFromContext(c.Request.Context())

	cfg, err := s.configSvc.Get(c.Request.Context(), spaceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cfg})
}

func (s *Server) UpsertDistributionConfig(c *gin.Context) {
	spaceID, _ := spacectx.SpaceIDFromContext(c.Request.Context())

	var req configdomain.UpsertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	cfg, err := s.configSvc.Upsert(c.Request.Context(), spaceID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cfg})
}
