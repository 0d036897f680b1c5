package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/common/middleware"
	claimservice "airdrop-claim-backend/internal/features/claim/service"
	"airdrop-claim-backend/internal/features/notification/models"
	"airdrop-claim-backend/internal/features/notification/service"
)

// NotificationHandler exposes the claim notification endpoints. Delivery
// failure is not a client-facing error: these endpoints answer 200 even
// when no target could be reached.
type NotificationHandler struct {
	dispatcher *service.Dispatcher
	chain      *service.FallbackChain
	steps      map[string]service.FallbackStep
	claims     *claimservice.Service
	targets    []models.NotificationTarget
}

func NewNotificationHandler(dispatcher *service.Dispatcher, chain *service.FallbackChain, steps []service.FallbackStep, claims *claimservice.Service, targets []models.NotificationTarget) *NotificationHandler {
	byName := make(map[string]service.FallbackStep, len(steps))
	for _, step := range steps {
		byName[step.Name] = step
	}
	return &NotificationHandler{
		dispatcher: dispatcher,
		chain:      chain,
		steps:      byName,
		claims:     claims,
		targets:    targets,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/notify-claim", h.notifyClaim)
	router.POST("/notify-claim", h.notifyClaim)
	router.GET("/direct-notify", h.directNotify)
	router.GET("/send-whatsapp", h.sendWhatsApp)
	router.POST("/status-notification", h.statusNotification)
}

type notifyClaimRequest struct {
	WalletAddress   string `json:"walletAddress" form:"walletAddress"`
	TwitterUsername string `json:"twitterUsername" form:"twitterUsername"`
	TelegramID      string `json:"telegramId" form:"telegramId"`
	TokenAmount     string `json:"tokenAmount" form:"tokenAmount"`
	ReferredBy      string `json:"referredBy" form:"referredBy"`
	TransactionHash string `json:"transactionHash" form:"transactionHash"`
}

// @Summary Announce a completed claim to all notification targets
// @Description Delivers the claim event to every configured target, escalating through the fallback chain on total failure.
// @Tags notifications
// @Produce json
// @Param walletAddress query string true "Claimant wallet address"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse "walletAddress missing"
// @Router /notify-claim [get]
func (h *NotificationHandler) notifyClaim(c *gin.Context) {
	var req notifyClaimRequest
	if c.Request.Method == http.MethodPost && c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.SendErrorResponse(c, apperrors.New(apperrors.ErrCodeBadRequest, "Malformed JSON body"))
			return
		}
	} else {
		_ = c.ShouldBindQuery(&req)
	}

	if req.WalletAddress == "" {
		middleware.SendErrorResponse(c, apperrors.NewValidationError("walletAddress", "is required"))
		return
	}

	amount, _ := strconv.ParseInt(req.TokenAmount, 10, 64)
	if amount == 0 {
		// Fall back to the recorded claim when the caller omits the amount.
		if record, err := h.claims.GetClaim(c.Request.Context(), req.WalletAddress); err == nil {
			amount = record.TokenAmount
		}
	}

	message := service.BuildClaimMessage(service.ClaimEvent{
		WalletAddress:   req.WalletAddress,
		TwitterUsername: req.TwitterUsername,
		TelegramID:      req.TelegramID,
		TokenAmount:     amount,
		ReferredBy:      req.ReferredBy,
		TransactionHash: req.TransactionHash,
	})

	report := h.chain.DispatchWithFallback(c.Request.Context(), message, h.targets)

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Claim notification processed",
		"data":               req,
		"notificationResult": report,
		"timestamp":          time.Now().UTC(),
	})
}

// directNotify runs the direct fallback step on its own. Kept as a thin
// endpoint so operators can trigger the alternate path manually.
func (h *NotificationHandler) directNotify(c *gin.Context) {
	h.runStep(c, "direct-notify")
}

// sendWhatsApp runs the text-endpoint fallback step on its own.
func (h *NotificationHandler) sendWhatsApp(c *gin.Context) {
	h.runStep(c, "send-whatsapp-text")
}

func (h *NotificationHandler) runStep(c *gin.Context, stepName string) {
	message := c.Query("message")
	walletAddress := c.Query("walletAddress")
	if message == "" && walletAddress == "" {
		middleware.SendErrorResponse(c, apperrors.NewValidationError("walletAddress", "walletAddress or message is required"))
		return
	}
	if message == "" {
		message = service.BuildClaimMessage(service.ClaimEvent{WalletAddress: walletAddress})
	}

	step, ok := h.steps[stepName]
	if !ok {
		middleware.SendErrorResponse(c, apperrors.New(apperrors.ErrCodeInternal, "Fallback step not configured"))
		return
	}

	attempt := step.Deliver(c.Request.Context(), message)

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Fallback delivery processed",
		"data":               gin.H{"walletAddress": walletAddress},
		"notificationResult": models.DeliveryReport{AnySucceeded: attempt.Succeeded, Attempts: []models.DeliveryAttemptResult{attempt}},
		"timestamp":          time.Now().UTC(),
	})
}

type statusNotificationRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// statusNotification composes the wallet's claim status and sends it to
// the first primary target only.
func (h *NotificationHandler) statusNotification(c *gin.Context) {
	var req statusNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WalletAddress == "" {
		middleware.SendErrorResponse(c, apperrors.NewValidationError("walletAddress", "is required"))
		return
	}

	record, err := h.claims.GetClaim(c.Request.Context(), req.WalletAddress)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	message := service.BuildStatusMessage(record)

	report := h.dispatcher.Dispatch(c.Request.Context(), message, h.targets[:1])
	if !report.AnySucceeded {
		middleware.SendErrorResponse(c, apperrors.New(apperrors.ErrCodeTotalDeliveryFailure, "Status notification could not be delivered"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Status notification sent",
		"data":               record,
		"notificationResult": report,
		"timestamp":          time.Now().UTC(),
	})
}
