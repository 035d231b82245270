package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/dkurilenko/go-todo-agent/internal/agent"
	"github.com/dkurilenko/go-todo-agent/internal/config"
	v1 "github.com/dkurilenko/go-todo-agent/internal/delivery/http/v1"
	"github.com/dkurilenko/go-todo-agent/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware)
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func corsMiddleware(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		cfg.JWT.AccessTokenTTL,
	)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)

	bridge := agent.NewBridge(globalLogger, taskService)
	converser := agent.New(globalLogger, cfg.OpenAI, bridge)
	chatService := services.NewChatService(globalLogger, globalPostgresPool, converser)

	v1Handler := v1.New(globalLogger, authService, taskService, chatService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRouter := router.Group("/auth")
	authRouter.POST("/signup", v1Handler.HandleSignup)
	authRouter.POST("/login", v1Handler.HandleLogin)

	apiRouter := router.Group("/api", v1Handler.HandleAuthMiddleware)
	userRouter := apiRouter.Group("/:user_id", v1Handler.HandleUserScopeMiddleware)

	userRouter.POST("/tasks", v1Handler.HandleCreateTask)
	userRouter.GET("/tasks", v1Handler.HandleGetTasks)
	userRouter.GET("/tasks/:id", v1Handler.HandleGetTask)
	userRouter.PUT("/tasks/:id", v1Handler.HandleUpdateTask)
	userRouter.DELETE("/tasks/:id", v1Handler.HandleDeleteTask)
	userRouter.PATCH("/tasks/:id/complete", v1Handler.HandleToggleTask)

	userRouter.POST("/chat", v1Handler.HandleChat)
	userRouter.GET("/chat/history", v1Handler.HandleChatHistory)
}
