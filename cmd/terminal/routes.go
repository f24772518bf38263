package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"tillpoint/config"
	"tillpoint/internal/backend"
	"tillpoint/internal/terminal/cart"
	"tillpoint/internal/terminal/checkout"
	"tillpoint/internal/terminal/handlers"
	"tillpoint/internal/terminal/location"
	"tillpoint/internal/terminal/middleware"
	"tillpoint/internal/terminal/register"
	"tillpoint/internal/terminal/ticket"
	"tillpoint/internal/terminal/watch"
	"tillpoint/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	log := logrus.StandardLogger()
	utils.SetSecret(cfg.Auth.JWTSecret)

	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, session state will not survive a restart")
		rdb = nil
	}

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token)

	locations := location.NewStore(rdb)
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := locations.Load(bootCtx); err != nil {
		log.WithError(err).Warn("could not restore active location")
	}

	cartStore := cart.NewStore()
	registerManager := register.NewManager(backendClient)

	var printer ticket.Printer
	if cfg.Printer.Addr != "" {
		printer = ticket.NewRawPrinter(cfg.Printer.Addr)
	} else {
		log.Warn("no printer configured, tickets will be logged")
		printer = ticket.NewLogPrinter(log)
	}
	tickets := ticket.NewController(printer, backendClient, locations.Get, log)

	alerts := watch.NewCenter()
	supervisor := watch.NewSupervisor(backendClient, rdb, alerts, watch.NewBellChime(os.Stdout), log)

	orchestrator := checkout.NewOrchestrator(cartStore, registerManager, backendClient, tickets, rdb, locations.Get, log)

	if loc := locations.Get(); loc != "" {
		supervisor.SetLocation(loc)
		if err := registerManager.SetLocation(bootCtx, loc); err != nil {
			log.WithError(err).Warn("register state could not be derived at startup")
		}
	}
	bootCancel()

	cartHandler := handlers.NewCartHTTPHandler(cartStore)
	checkoutHandler := handlers.NewCheckoutHTTPHandler(orchestrator)
	heldHandler := handlers.NewHeldTicketHTTPHandler(orchestrator, backendClient, cartStore, locations.Get, log)
	registerHandler := handlers.NewRegisterHTTPHandler(registerManager, tickets, log)
	ticketHandler := handlers.NewTicketHTTPHandler(backendClient, tickets, locations.Get)
	alertsHandler := handlers.NewAlertsHTTPHandler(alerts)
	locationHandler := handlers.NewLocationHTTPHandler(locations, registerManager, supervisor, log)
	sessionHandler := handlers.NewSessionHTTPHandler(cfg.Auth.OperatorPIN)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(cfg.Server.RateLimit))

	public := r.Group("/api/v1")
	{
		public.POST("/session", sessionHandler.Login)
	}

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		cartGroup := protected.Group("/cart")
		{
			cartGroup.GET("", cartHandler.GetCart)
			cartGroup.DELETE("", cartHandler.ClearCart)
			cartGroup.POST("/items", cartHandler.AddItem)
			cartGroup.PUT("/items/:id/quantity", cartHandler.SetQuantity)
			cartGroup.PUT("/items/:id/note", cartHandler.SetNote)
			cartGroup.DELETE("/items/:id", cartHandler.RemoveLine)
		}

		protected.POST("/checkout", checkoutHandler.Checkout)

		heldGroup := protected.Group("/held-tickets")
		{
			heldGroup.POST("", heldHandler.SaveHeldTicket)
			heldGroup.GET("", heldHandler.ListHeldTickets)
			heldGroup.POST("/:id/load", heldHandler.LoadHeldTicket)
			heldGroup.DELETE("/:id", heldHandler.DiscardHeldTicket)
		}

		registerGroup := protected.Group("/register")
		{
			registerGroup.GET("", registerHandler.GetState)
			registerGroup.POST("/open", registerHandler.OpenRegister)
			registerGroup.POST("/close", registerHandler.CloseRegister)
			registerGroup.GET("/history", registerHandler.History)
		}

		ticketGroup := protected.Group("/tickets")
		{
			ticketGroup.GET("/:orderNumber", ticketHandler.GetTicket)
			ticketGroup.POST("/:orderNumber/print", ticketHandler.PrintTicket)
		}

		alertGroup := protected.Group("/alerts")
		{
			alertGroup.GET("", alertsHandler.ListAlerts)
			alertGroup.POST("/:id/dismiss", alertsHandler.DismissAlert)
		}

		protected.GET("/location", locationHandler.GetLocation)
		protected.PUT("/location", locationHandler.SetLocation)
	}

	r.GET("/health", healthCheckHandler(rdb, registerManager))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("Starting terminal on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down terminal")

	supervisor.Stop()
	tickets.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}

func healthCheckHandler(rdb *redis.Client, manager *register.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		redisStatus := "unavailable"
		if rdb != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err == nil {
				redisStatus = "healthy"
			}
		}
		if redisStatus != "healthy" {
			status = "degraded"
			httpStatus = http.StatusPartialContent
		}

		c.JSON(httpStatus, gin.H{
			"status":         status,
			"redis":          redisStatus,
			"register_state": manager.State().String(),
			"timestamp":      time.Now(),
		})
	}
}
