package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	engineCfg, err := config.LoadEngineConfig()
	if err != nil {
		// Bad thresholds must never produce recommendations.
		log.Fatalf("engine configuration rejected: %v", err)
	}
	api, err := newAPI(engineCfg, logger)
	if err != nil {
		log.Fatalf("engine construction failed: %v", err)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", api.health)
	v1 := r.Group("/api/v1")
	{
		v1.POST("/reconcile", api.reconcile)
		v1.GET("/recommendations", api.listRecommendations)
		v1.GET("/recommendations/:runId", api.getRecommendation)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Infof("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	// Connect after the server is listening; reconcile requests that carry
	// their own candidate snapshots work without any database at all.
	config.ConnectDatabaseWithRetry()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
}
