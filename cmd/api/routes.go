package main

import (
	"time"

	"github.com/gin-gonic/gin"

	authHandler "ucplatform-backend/internal/handler/http/auth"
	callHandler "ucplatform-backend/internal/handler/http/call"
	chatHandler "ucplatform-backend/internal/handler/http/chat"
	contactHandler "ucplatform-backend/internal/handler/http/contact"
	userHandler "ucplatform-backend/internal/handler/http/user"
	voicemailHandler "ucplatform-backend/internal/handler/http/voicemail"
	wsHandler "ucplatform-backend/internal/handler/ws"
	"ucplatform-backend/internal/middleware"
	callService "ucplatform-backend/internal/service/call"
	chatService "ucplatform-backend/internal/service/chat"
	contactService "ucplatform-backend/internal/service/contact"
	userService "ucplatform-backend/internal/service/user"
	voicemailService "ucplatform-backend/internal/service/voicemail"
	"ucplatform-backend/pkg/jwt"
	"ucplatform-backend/pkg/metrics"
)

type routerDeps struct {
	jwtManager   *jwt.Manager
	metrics      *metrics.Metrics
	hub          *wsHandler.Hub
	userSvc      *userService.Service
	callSvc      *callService.Service
	contactSvc   *contactService.Service
	voicemailSvc *voicemailService.Service
	chatSvc      *chatService.Service
}

func setupRouter(deps *routerDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.SetTrustedProxies(nil)

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.Prometheus(deps.metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "ucplatform-api",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", middleware.MetricsHandler(deps.metrics))

	authHdlr := authHandler.NewHandler(deps.userSvc)
	userHdlr := userHandler.NewHandler(deps.userSvc)
	callHdlr := callHandler.NewHandler(deps.callSvc)
	contactHdlr := contactHandler.NewHandler(deps.contactSvc)
	voicemailHdlr := voicemailHandler.NewHandler(deps.voicemailSvc)
	chatHdlr := chatHandler.NewHandler(deps.chatSvc)

	api := router.Group("/api")

	// Public endpoints
	api.POST("/auth/register", authHdlr.Register)
	api.POST("/auth/login", authHdlr.Login)

	// Authenticated endpoints
	auth := api.Group("")
	auth.Use(middleware.Auth(deps.jwtManager))
	{
		// Signaling channel; auth token arrives as a query parameter
		auth.GET("/ws", deps.hub.ServeWS)

		auth.GET("/users/me", userHdlr.Me)
		auth.PUT("/users/me", userHdlr.UpdateProfile)
		auth.PUT("/users/me/status", userHdlr.UpdateStatus)
		auth.GET("/users", userHdlr.List)
		auth.GET("/users/online", userHdlr.Online)
		auth.GET("/users/online/count", userHdlr.OnlineCount)
		auth.GET("/users/:id", userHdlr.Get)

		auth.GET("/calls", callHdlr.List)
		auth.GET("/calls/:id", callHdlr.Get)
		auth.POST("/calls/external", callHdlr.External)
		auth.GET("/rates", callHdlr.Rates)

		auth.POST("/contacts", contactHdlr.Create)
		auth.GET("/contacts", contactHdlr.List)
		auth.GET("/contacts/:id", contactHdlr.Get)
		auth.PUT("/contacts/:id", contactHdlr.Update)
		auth.DELETE("/contacts/:id", contactHdlr.Delete)

		auth.GET("/voicemails", voicemailHdlr.List)
		auth.POST("/voicemails", voicemailHdlr.Deposit)
		auth.GET("/voicemails/:id", voicemailHdlr.Get)
		auth.PUT("/voicemails/:id/archive", voicemailHdlr.SetArchived)
		auth.DELETE("/voicemails/:id", voicemailHdlr.Delete)

		auth.POST("/chats", chatHdlr.Create)
		auth.GET("/chats", chatHdlr.List)
		auth.GET("/chats/:id", chatHdlr.Get)
		auth.GET("/chats/:id/messages", chatHdlr.Messages)
		auth.POST("/chats/:id/messages", chatHdlr.Send)
		auth.DELETE("/chats/:id/messages/:messageID", chatHdlr.DeleteMessage)
		auth.POST("/chats/:id/participants", chatHdlr.AddParticipant)
		auth.DELETE("/chats/:id/participants/me", chatHdlr.Leave)
	}

	// Administration endpoints
	admin := api.Group("/admin")
	admin.Use(middleware.Auth(deps.jwtManager), middleware.RequireAdmin())
	{
		admin.PUT("/users/:id/role", userHdlr.SetRole)
		admin.PUT("/users/:id/active", userHdlr.SetActive)
		admin.DELETE("/users/:id", userHdlr.Delete)

		admin.GET("/calls/stats", callHdlr.Stats)
		admin.DELETE("/calls/:id", callHdlr.Delete)

		admin.GET("/trunks", callHdlr.Trunks)
		admin.POST("/trunks/:id/test", callHdlr.TestTrunk)
	}

	return router
}
