package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"airdrop-claim-backend/internal/common/config"
	"airdrop-claim-backend/internal/common/logger"
	"airdrop-claim-backend/internal/common/middleware"
	claimhttp "airdrop-claim-backend/internal/features/claim/delivery/http"
	"airdrop-claim-backend/internal/features/claim/repository"
	claimmemory "airdrop-claim-backend/internal/features/claim/repository/memory"
	claimredis "airdrop-claim-backend/internal/features/claim/repository/redis"
	claimservice "airdrop-claim-backend/internal/features/claim/service"
	notifyhttp "airdrop-claim-backend/internal/features/notification/delivery/http"
	notifymodels "airdrop-claim-backend/internal/features/notification/models"
	notifyservice "airdrop-claim-backend/internal/features/notification/service"
	paymentservice "airdrop-claim-backend/internal/features/payment/service"
	verifyhttp "airdrop-claim-backend/internal/features/verification/delivery/http"
	verifymodels "airdrop-claim-backend/internal/features/verification/models"
	verifyservice "airdrop-claim-backend/internal/features/verification/service"
	"airdrop-claim-backend/internal/platform/gateway"
	redisplatform "airdrop-claim-backend/internal/platform/redis"
)

func main() {
	cfg := config.MustLoad()
	logger.Init("airdrop-claim-backend", cfg.Debug)

	// Claim store: redis when enabled, in-process otherwise.
	var claimRepo repository.ClaimRepository
	if cfg.Redis.Enabled {
		rdb, err := redisplatform.Open(context.Background(), cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		claimRepo = claimredis.NewClaimRepository(rdb)
		logger.Info().Msg("Redis claim store initialized")
	} else {
		claimRepo = claimmemory.NewClaimRepository()
		logger.Info().Msg("In-memory claim store initialized")
	}

	claimSvc := claimservice.NewService(claimRepo, cfg.Claim.BaseTokenAmount, cfg.Claim.ReferralBonusPercent, cfg.Claim.ReferrerBonusPerReferral)

	taskIDs := verifymodels.TaskIDs(cfg.Tasks.RequireTwitter, cfg.Tasks.RequireTelegram)
	if len(taskIDs) == 0 {
		logger.Fatal().Msg("No verification tasks enabled, check REQUIRE_TWITTER / REQUIRE_TELEGRAM")
	}
	checker := verifyservice.NewSimulatedChecker(cfg.Tasks.CheckerFailureRate, 500*time.Millisecond, time.Now().UnixNano())
	verifier := verifyservice.NewVerifier(checker, taskIDs, cfg.Tasks.CheckTimeout, cfg.Tasks.CheckAllTimeout)

	var paymentProvider paymentservice.Provider = paymentservice.StaticProvider{}
	if cfg.Payment.ProviderURL != "" {
		paymentProvider = paymentservice.NewHTTPProvider(cfg.Payment.ProviderURL, 10*time.Second)
	}
	paymentSvc := paymentservice.NewService(paymentProvider, cfg.Payment.PollInterval, cfg.Payment.MaxAttempts)

	gw := gateway.NewClient(cfg.Notify.GatewayBaseURL, cfg.Notify.TargetTimeout)
	dispatcher := notifyservice.NewDispatcher(gw, cfg.Notify.TargetTimeout, cfg.Notify.InterTargetDelay)

	targets := make([]notifymodels.NotificationTarget, 0, len(cfg.ParsedTargets()))
	for _, t := range cfg.ParsedTargets() {
		targets = append(targets, notifymodels.NotificationTarget{
			ChannelID:  t.ChannelID,
			Address:    t.Address,
			Credential: t.Credential,
		})
	}

	fallbackTarget := notifymodels.NotificationTarget{
		ChannelID:  "fallback",
		Address:    cfg.Notify.FallbackPhone,
		Credential: cfg.Notify.FallbackAPIKey,
	}
	if fallbackTarget.Address == "" {
		// Without a dedicated fallback channel, escalate through the
		// first primary target on the alternate endpoints.
		fallbackTarget = targets[0]
	}
	steps := []notifyservice.FallbackStep{
		notifyservice.NewDirectStep(gw, fallbackTarget, cfg.Notify.TargetTimeout),
		notifyservice.NewTextStep(gw, fallbackTarget, cfg.Notify.TargetTimeout),
	}
	chain := notifyservice.NewFallbackChain(dispatcher, steps)

	logger.Info().
		Int("targets", len(targets)).
		Int("fallback_steps", len(steps)).
		Int("tasks", len(taskIDs)).
		Msg("Services initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID", "X-Admin-Username", "X-Admin-Password"}
	router.Use(cors.New(corsConfig))

	// Compatibility endpoints live unversioned at the root; claim and
	// task resources under /api/v1.
	root := &router.RouterGroup
	api := router.Group("/api/v1")
	admin := api.Group("")
	admin.Use(middleware.RequireAdmin(cfg.Admin.Username, cfg.Admin.Password))

	notifyhttp.NewNotificationHandler(dispatcher, chain, steps, claimSvc, targets).RegisterRoutes(root)
	verifyhttp.NewVerificationHandler(verifier).RegisterRoutes(root, api)
	claimhttp.NewClaimHandler(claimSvc, verifier, paymentSvc, chain, targets).RegisterRoutes(api, admin)

	registerProbes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func registerProbes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "airdrop-claim-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "airdrop-claim-backend",
		})
	})
}
