package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/common/middleware"
	"airdrop-claim-backend/internal/features/claim/service"
	notifymodels "airdrop-claim-backend/internal/features/notification/models"
	notifyservice "airdrop-claim-backend/internal/features/notification/service"
	paymentservice "airdrop-claim-backend/internal/features/payment/service"
	verifyservice "airdrop-claim-backend/internal/features/verification/service"
)

// ClaimHandler drives the full claim pipeline: aggregate verification,
// payment confirmation, the idempotent ledger write and the best-effort
// operator notification, strictly in that order.
type ClaimHandler struct {
	claims   *service.Service
	verifier *verifyservice.Verifier
	payments *paymentservice.Service
	chain    *notifyservice.FallbackChain
	targets  []notifymodels.NotificationTarget
}

func NewClaimHandler(claims *service.Service, verifier *verifyservice.Verifier, payments *paymentservice.Service, chain *notifyservice.FallbackChain, targets []notifymodels.NotificationTarget) *ClaimHandler {
	return &ClaimHandler{
		claims:   claims,
		verifier: verifier,
		payments: payments,
		chain:    chain,
		targets:  targets,
	}
}

func (h *ClaimHandler) RegisterRoutes(api, admin *gin.RouterGroup) {
	api.POST("/claims", h.createClaim)
	api.GET("/claims/:wallet", h.getClaim)

	admin.GET("/claims/:wallet/referrals", h.getReferrals)
	admin.GET("/stats", h.getStats)
}

type createClaimRequest struct {
	WalletAddress   string `json:"walletAddress"`
	TransactionHash string `json:"transactionHash"`
	ReferredBy      string `json:"referredBy"`
	TwitterUsername string `json:"twitterUsername"`
	TelegramID      string `json:"telegramId"`
}

// @Summary Complete an airdrop claim
// @Description Verifies all tasks, confirms the payment, records the claim once per wallet and announces it to operators.
// @Tags claims
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Already claimed"
// @Router /api/v1/claims [post]
func (h *ClaimHandler) createClaim(c *gin.Context) {
	var req createClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendErrorResponse(c, apperrors.New(apperrors.ErrCodeBadRequest, "Malformed JSON body"))
		return
	}
	if req.WalletAddress == "" {
		middleware.SendErrorResponse(c, apperrors.NewValidationError("walletAddress", "is required"))
		return
	}

	// Duplicate claims are rejected before any payment or notification
	// step runs.
	claimed, err := h.claims.HasClaimed(c.Request.Context(), req.WalletAddress)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if claimed {
		middleware.SendErrorResponse(c, apperrors.NewAlreadyClaimedError(req.WalletAddress))
		return
	}

	aggregate, err := h.verifier.VerifyAll(c.Request.Context(), req.WalletAddress)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !aggregate.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":       false,
			"message":       aggregate.Message,
			"failingTaskId": aggregate.FailingTaskID,
			"timestamp":     time.Now().UTC(),
		})
		return
	}

	if req.TransactionHash != "" {
		confirmed, err := h.payments.AwaitConfirmation(c.Request.Context(), req.TransactionHash)
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		if !confirmed {
			// Task progress survives; the user may retry the payment check.
			middleware.SendErrorResponse(c, apperrors.New(apperrors.ErrCodePaymentUnconfirmed, "Payment not confirmed yet, please try again"))
			return
		}
	}

	record, err := h.claims.RecordClaim(c.Request.Context(), req.WalletAddress, h.claims.BaseAmount(), req.TransactionHash, req.ReferredBy)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	// The claim is committed; delivery failure never rolls it back.
	message := notifyservice.BuildClaimMessage(notifyservice.ClaimEvent{
		WalletAddress:   record.WalletAddress,
		TwitterUsername: req.TwitterUsername,
		TelegramID:      req.TelegramID,
		TokenAmount:     record.TokenAmount,
		ReferredBy:      record.ReferredBy,
		TransactionHash: record.TransactionHash,
	})
	report := h.chain.DispatchWithFallback(c.Request.Context(), message, h.targets)

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Claim recorded",
		"data":               record,
		"notificationResult": report,
		"timestamp":          time.Now().UTC(),
	})
}

func (h *ClaimHandler) getClaim(c *gin.Context) {
	record, err := h.claims.GetClaim(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      record,
		"timestamp": time.Now().UTC(),
	})
}

func (h *ClaimHandler) getReferrals(c *gin.Context) {
	summary, err := h.claims.ReferralBonus(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      summary,
		"timestamp": time.Now().UTC(),
	})
}

func (h *ClaimHandler) getStats(c *gin.Context) {
	stats, err := h.claims.Stats(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      stats,
		"timestamp": time.Now().UTC(),
	})
}
