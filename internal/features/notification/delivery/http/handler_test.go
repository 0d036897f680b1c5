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

	claimmemory "airdrop-claim-backend/internal/features/claim/repository/memory"
	claimservice "airdrop-claim-backend/internal/features/claim/service"
	"airdrop-claim-backend/internal/features/notification/models"
	"airdrop-claim-backend/internal/features/notification/service"
	"airdrop-claim-backend/internal/platform/gateway"
)

const testWallet = "0x00000000000000000000000000000000000000Aa"

func setupRouter(t *testing.T, gatewayURL string) (*gin.Engine, *claimservice.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := gateway.NewClient(gatewayURL, time.Second)
	dispatcher := service.NewDispatcher(gw, time.Second, 0)
	targets := []models.NotificationTarget{
		{ChannelID: "admin1", Address: "+100", Credential: "key1"},
	}
	steps := []service.FallbackStep{
		service.NewDirectStep(gw, targets[0], time.Second),
		service.NewTextStep(gw, targets[0], time.Second),
	}
	chain := service.NewFallbackChain(dispatcher, steps)
	claims := claimservice.NewService(claimmemory.NewClaimRepository(), 100, 10, 50)

	router := gin.New()
	NewNotificationHandler(dispatcher, chain, steps, claims, targets).RegisterRoutes(&router.RouterGroup)
	return router, claims
}

func gatewayStub(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
}

func TestNotifyClaim_MissingWalletIs400(t *testing.T) {
	server := gatewayStub("Message Sent")
	defer server.Close()
	router, _ := setupRouter(t, server.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notify-claim", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotifyClaim_DeliveryFailureIsStill200(t *testing.T) {
	// Gateway rejects everything: primary and both fallback steps fail.
	server := gatewayStub("ERROR: rate limited")
	defer server.Close()
	router, _ := setupRouter(t, server.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notify-claim?walletAddress="+testWallet+"&tokenAmount=100", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success            bool                  `json:"success"`
		NotificationResult models.DeliveryReport `json:"notificationResult"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.NotificationResult.AnySucceeded)
	// One primary target plus two fallback steps, all recorded.
	assert.Len(t, resp.NotificationResult.Attempts, 3)
}

func TestNotifyClaim_PostJSONBody(t *testing.T) {
	server := gatewayStub("Message queued")
	defer server.Close()
	router, _ := setupRouter(t, server.URL)

	body := strings.NewReader(`{"walletAddress":"` + testWallet + `","tokenAmount":"150","transactionHash":"0xdeadbeef"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notify-claim", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		NotificationResult models.DeliveryReport `json:"notificationResult"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.NotificationResult.AnySucceeded)
}

func TestDirectNotify_RequiresWalletOrMessage(t *testing.T) {
	server := gatewayStub("Message Sent")
	defer server.Close()
	router, _ := setupRouter(t, server.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/direct-notify", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/direct-notify?walletAddress="+testWallet, nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusNotification_UnknownWalletIs404(t *testing.T) {
	server := gatewayStub("Message Sent")
	defer server.Close()
	router, _ := setupRouter(t, server.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/status-notification", strings.NewReader(`{"walletAddress":"`+testWallet+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusNotification_SendsCurrentClaimState(t *testing.T) {
	server := gatewayStub("Message Sent")
	defer server.Close()
	router, claims := setupRouter(t, server.URL)

	_, err := claims.RecordClaim(context.Background(), testWallet, 100, "0xdeadbeef", "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/status-notification", strings.NewReader(`{"walletAddress":"`+testWallet+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
