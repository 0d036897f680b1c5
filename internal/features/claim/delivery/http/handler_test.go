package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdrop-claim-backend/internal/features/claim/repository/memory"
	"airdrop-claim-backend/internal/features/claim/service"
	notifymodels "airdrop-claim-backend/internal/features/notification/models"
	notifyservice "airdrop-claim-backend/internal/features/notification/service"
	paymentservice "airdrop-claim-backend/internal/features/payment/service"
	"airdrop-claim-backend/internal/features/verification/models"
	verifyservice "airdrop-claim-backend/internal/features/verification/service"
	"airdrop-claim-backend/internal/platform/gateway"
)

const (
	walletA = "0x00000000000000000000000000000000000000Aa"
	walletB = "0x00000000000000000000000000000000000000bB"
)

type pipeline struct {
	router   *gin.Engine
	verifier *verifyservice.Verifier
	claims   *service.Service
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Message Sent")
	}))
	t.Cleanup(server.Close)

	gw := gateway.NewClient(server.URL, time.Second)
	targets := []notifymodels.NotificationTarget{{ChannelID: "admin1", Address: "+100", Credential: "key1"}}
	dispatcher := notifyservice.NewDispatcher(gw, time.Second, 0)
	chain := notifyservice.NewFallbackChain(dispatcher, nil)

	claims := service.NewService(memory.NewClaimRepository(), 100, 10, 50)
	checker := verifyservice.NewSimulatedChecker(0, 0, 1)
	verifier := verifyservice.NewVerifier(checker, models.TaskIDs(true, true), time.Second, 5*time.Second)
	payments := paymentservice.NewService(paymentservice.StaticProvider{}, time.Millisecond, 3)

	router := gin.New()
	api := router.Group("/api/v1")
	admin := router.Group("/api/v1/admin")
	NewClaimHandler(claims, verifier, payments, chain, targets).RegisterRoutes(api, admin)

	return &pipeline{router: router, verifier: verifier, claims: claims}
}

// completeTasks walks the wallet through every gated task in order.
func (p *pipeline) completeTasks(t *testing.T, walletAddress string) {
	t.Helper()
	ctx := context.Background()
	inputs := map[models.TaskID]models.TaskInput{
		models.TaskTwitterFollow:  {TwitterUsername: "alice"},
		models.TaskTwitterRetweet: {RetweetURL: "https://twitter.com/alice/status/1234567890"},
		models.TaskTwitterLike:    {TwitterUsername: "alice"},
		models.TaskTelegramJoin:   {TelegramID: "123456"},
	}
	for _, id := range models.TaskIDs(true, true) {
		outcome, err := p.verifier.VerifyTask(ctx, walletAddress, id, inputs[id])
		require.NoError(t, err)
		require.True(t, outcome.Success)
	}
}

func (p *pipeline) postClaim(body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/claims", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	p.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateClaim_RejectedWhileTasksIncomplete(t *testing.T) {
	p := newPipeline(t)

	rec := p.postClaim(`{"walletAddress":"` + walletA + `"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Success       bool   `json:"success"`
		FailingTaskID string `json:"failingTaskId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, string(models.TaskTwitterFollow), resp.FailingTaskID)
}

func TestCreateClaim_FullPipeline(t *testing.T) {
	p := newPipeline(t)
	p.completeTasks(t, walletA)

	rec := p.postClaim(`{"walletAddress":"` + walletA + `","transactionHash":"0xdeadbeef"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			WalletAddress   string `json:"wallet_address"`
			TokenAmount     int64  `json:"token_amount"`
			TransactionHash string `json:"transaction_hash"`
		} `json:"data"`
		NotificationResult notifymodels.DeliveryReport `json:"notificationResult"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, strings.ToLower(walletA), resp.Data.WalletAddress)
	assert.Equal(t, int64(100), resp.Data.TokenAmount)
	assert.Equal(t, "0xdeadbeef", resp.Data.TransactionHash)
	assert.True(t, resp.NotificationResult.AnySucceeded)
}

func TestCreateClaim_SecondClaimIsConflict(t *testing.T) {
	p := newPipeline(t)
	p.completeTasks(t, walletA)

	require.Equal(t, http.StatusOK, p.postClaim(`{"walletAddress":"`+walletA+`"}`).Code)

	rec := p.postClaim(`{"walletAddress":"` + walletA + `"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateClaim_ReferralBonusApplied(t *testing.T) {
	p := newPipeline(t)
	p.completeTasks(t, walletA)
	p.completeTasks(t, walletB)

	require.Equal(t, http.StatusOK, p.postClaim(`{"walletAddress":"`+walletA+`"}`).Code)

	rec := p.postClaim(`{"walletAddress":"` + walletB + `","referredBy":"` + walletA + `"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			TokenAmount int64  `json:"token_amount"`
			ReferredBy  string `json:"referred_by"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(110), resp.Data.TokenAmount)
	assert.Equal(t, strings.ToLower(walletA), resp.Data.ReferredBy)

	summary, err := p.claims.ReferralBonus(context.Background(), walletA)
	require.NoError(t, err)
	assert.Equal(t, int64(50), summary.Bonus)
}

func TestGetClaim_NotFoundAndRoundTrip(t *testing.T) {
	p := newPipeline(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims/"+walletA, nil)
	p.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	p.completeTasks(t, walletA)
	require.Equal(t, http.StatusOK, p.postClaim(`{"walletAddress":"`+walletA+`"}`).Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/claims/"+walletA, nil)
	p.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
