package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/auth"
	"github.com/PepaPanda/uu-backend-project/internal/config"
	"github.com/PepaPanda/uu-backend-project/internal/handlers"
	"github.com/PepaPanda/uu-backend-project/internal/middleware"
	"github.com/PepaPanda/uu-backend-project/internal/service"
	"github.com/PepaPanda/uu-backend-project/internal/websocket"
)

// Deps are the collaborators the HTTP layer is built from. Redis is optional
// and disables rate limiting when nil.
type Deps struct {
	Config *config.Config
	Log    *logrus.Logger
	Users  *service.UserService
	Lists  *service.ListService
	Tokens *auth.JWTManager
	Hub    *websocket.Hub
	Redis  *redis.Client
}

func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "This endpoint does not exist", "code": apperr.KindNotFound})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens.ExpiresIn(), cfg)
	userHandler := handlers.NewUserHandler(d.Users)
	listHandler := handlers.NewListHandler(d.Lists)
	itemHandler := handlers.NewItemHandler(d.Lists)
	sharingHandler := handlers.NewSharingHandler(d.Lists)
	memoryHandler := handlers.NewMemoryHandler(d.Lists)
	wsHandler := handlers.NewWebSocketHandler(d.Hub)

	limitByIP := middleware.RateLimit(d.Redis, cfg.RateLimit.Login, cfg.RateLimit.Window, middleware.KeyByIP())
	limitByUser := middleware.RateLimit(d.Redis, cfg.RateLimit.API, cfg.RateLimit.Window, middleware.KeyByUserID())

	// Public routes
	api := router.Group("/api")
	{
		api.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.POST("/auth/login", limitByIP, authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)
		api.POST("/user/register", limitByIP, authHandler.Register)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.Tokens), limitByUser)
	{
		users := protected.Group("/user")
		{
			users.GET("", userHandler.GetCurrentUser)
			users.GET("/invitations", userHandler.GetInvitations)
			users.PATCH("/:userId", userHandler.UpdateUser)
			users.GET("/:userId/shoppinglist", userHandler.GetUserLists)
			users.PATCH("/invitation/:listId/accept", userHandler.AcceptInvitation)
			users.PATCH("/invitation/:listId/decline", userHandler.DeclineInvitation)
		}

		lists := protected.Group("/shoppinglist")
		{
			lists.POST("/create", listHandler.CreateList)
			lists.GET("/:listId", listHandler.GetList)
			lists.PATCH("/:listId", listHandler.UpdateList)
			lists.DELETE("/:listId", listHandler.DeleteList)

			// Sharing
			lists.GET("/:listId/user", sharingHandler.GetMembers)
			lists.PATCH("/:listId/user/invite", sharingHandler.InviteUser)
			lists.PATCH("/:listId/user/:userId/remove", sharingHandler.RemoveMember)
			lists.DELETE("/:listId/user/:userId/invite", sharingHandler.CancelInvitation)

			// Items
			lists.GET("/:listId/item", itemHandler.GetItems)
			lists.POST("/:listId/item", itemHandler.CreateItem)
			lists.PATCH("/:listId/item/:itemId", itemHandler.UpdateItem)
			lists.DELETE("/:listId/item/:itemId", itemHandler.DeleteItem)
		}

		// Memory/autocomplete routes
		protected.GET("/memory", memoryHandler.GetMemory)

		protected.GET("/ws", wsHandler.HandleWebSocket)
		protected.GET("/ws/online", wsHandler.GetOnlineUsers)
	}

	return router
}
