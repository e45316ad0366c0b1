package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"qqueue-app/qqueue/broker"
	"qqueue-app/qqueue/config"
	"qqueue-app/qqueue/database"
	"qqueue-app/qqueue/middleware"
	"qqueue-app/qqueue/routes"
	"qqueue-app/qqueue/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// The broker is optional: without it the event rows still carry the
	// audit trail, only live streaming is disabled.
	brokerAvailable := true
	if err := broker.InitProducer(cfg.NatsURL); err != nil {
		log.Printf("Warning: Failed to initialize NATS producer: %v", err)
		log.Println("The application will continue, but event streaming is disabled")
		brokerAvailable = false
	} else {
		defer broker.CloseProducer()
	}

	var consumer *broker.Consumer
	if brokerAvailable {
		consumer, err = broker.NewConsumer(cfg.NatsURL, []string{
			broker.TaskEventsSubject,
			broker.CommentEventsSubject,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS consumer: %v", err)
		} else {
			defer consumer.Close()
		}
	}

	webSocketService := services.NewWebSocketService(consumer)
	services.WebSocketServiceInstance = webSocketService
	webSocketService.Start()
	defer webSocketService.Stop()

	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpirationHours)
	services.AuthServiceInstance = authService

	userService := services.NewUserService(authService)
	services.UserServiceInstance = userService

	taskService := services.NewTaskService(cfg.TeaserListSize)
	services.TaskServiceInstance = taskService

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.MetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.RegisterAuthRoutes(router, db, authService, userService)
	routes.RegisterUserRoutes(router, db, userService, services.ProfileServiceInstance, authService)
	routes.RegisterTaskRoutes(router, db, taskService, services.CommentServiceInstance, authService)
	routes.RegisterWebSocketRoutes(router, webSocketService, cfg.JWTSecret)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down server...")
		webSocketService.Stop()
		if consumer != nil {
			consumer.Close()
		}
		broker.CloseProducer()
		os.Exit(0)
	}()

	log.Printf("API server is running on port %s", cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
