package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "airdrop-claim-backend/internal/common/errors"
	"airdrop-claim-backend/internal/common/middleware"
	"airdrop-claim-backend/internal/features/verification/models"
	"airdrop-claim-backend/internal/features/verification/service"
)

type VerificationHandler struct {
	verifier *service.Verifier
}

func NewVerificationHandler(verifier *service.Verifier) *VerificationHandler {
	return &VerificationHandler{
		verifier: verifier,
	}
}

// RegisterRoutes mounts /verify-task unversioned for compatibility and
// the task board under the API group.
func (h *VerificationHandler) RegisterRoutes(root, api *gin.RouterGroup) {
	root.POST("/verify-task", h.verifyTask)
	api.GET("/tasks", h.listTasks)
}

type verifyTaskRequest struct {
	TaskID        string `json:"taskId"`
	WalletAddress string `json:"walletAddress"`

	TwitterUsername string `json:"twitterUsername"`
	RetweetURL      string `json:"retweetUrl"`
	TelegramID      string `json:"telegramId"`
}

// @Summary Verify one claim qualification task
// @Description Runs structural validation and the remote check for a single task. Tasks must be verified in their declared order.
// @Tags verification
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} middleware.ErrorResponse "Validation failure or failed verification"
// @Router /verify-task [post]
func (h *VerificationHandler) verifyTask(c *gin.Context) {
	var req verifyTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendErrorResponse(c, apperrors.New(apperrors.ErrCodeBadRequest, "Malformed JSON body"))
		return
	}
	if req.WalletAddress == "" {
		middleware.SendErrorResponse(c, apperrors.NewValidationError("walletAddress", "is required"))
		return
	}
	if req.TaskID == "" {
		middleware.SendErrorResponse(c, apperrors.NewValidationError("taskId", "is required"))
		return
	}

	outcome, err := h.verifier.VerifyTask(c.Request.Context(), req.WalletAddress, models.TaskID(req.TaskID), models.TaskInput{
		TwitterUsername: req.TwitterUsername,
		RetweetURL:      req.RetweetURL,
		TelegramID:      req.TelegramID,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{
		"success":   outcome.Success,
		"message":   outcome.Message,
		"taskId":    req.TaskID,
		"timestamp": time.Now().UTC(),
	})
}

// listTasks returns the wallet's task board with the aggregate
// verification progress.
func (h *VerificationHandler) listTasks(c *gin.Context) {
	walletAddress := c.Query("walletAddress")
	if walletAddress == "" {
		middleware.SendErrorResponse(c, apperrors.NewValidationError("walletAddress", "is required"))
		return
	}

	gate, err := h.verifier.Gate(walletAddress)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"tasks":     gate.Tasks(),
		"completed": gate.AllCompleted(),
		"progress":  h.verifier.Progress(walletAddress),
		"timestamp": time.Now().UTC(),
	})
}
