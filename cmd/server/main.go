package main

import (
	"log"
	"strconv"
	"time"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/config"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/database"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/game"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/handlers"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/middleware"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/services"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/ws"

	_ "github.com/Krishna-Gupta17/OneFocus-B/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           OneFocus API
// @version         1.0
// @description     Study tracking, friends, leaderboards and real-time focus races
// @host            localhost:5000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	ttlMins, _ := strconv.Atoi(cfg.RoomTTLMins)
	if ttlMins <= 0 {
		ttlMins = 120
	}
	races := game.NewRaceStore(time.Duration(ttlMins) * time.Minute)
	races.Start(time.Minute)
	defer races.Stop()

	authService := services.NewAuthService(cfg.JWTSecret)
	userService := services.NewUserService(db)
	roomService := services.NewRoomService(db)

	coordinator := game.NewCoordinator(races, hub, roomService, userService)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, roomService)
	roomHandler := handlers.NewRoomHandler(roomService)
	gameHandler := handlers.NewGameHandler(coordinator, hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(200, "OneFocus server is running")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/game", gameHandler.HandleWebSocket)

	api := r.Group("/api")
	{
		api.POST("/auth/token", authHandler.IssueToken)
		api.POST("/users", userHandler.CreateUser)

		api.GET("/leaderboard", middleware.JWTAuth(authService), userHandler.Leaderboard)

		users := api.Group("/users")
		users.Use(middleware.JWTAuth(authService))
		{
			users.GET("/:uid", userHandler.GetUser)
			users.PUT("/:uid", userHandler.UpdateUser)
			users.PUT("/:uid/clear-invite", userHandler.ClearInvite)
			users.POST("/:uid/focus-session", userHandler.AddFocusSession)
			users.GET("/:uid/friends-leaderboard", userHandler.FriendsLeaderboard)
			users.POST("/:uid/send-friend-request", userHandler.SendFriendRequest)
			users.POST("/:uid/accept-friend-request", userHandler.AcceptFriendRequest)
			users.POST("/:uid/reject-friend-request", userHandler.RejectFriendRequest)
			users.POST("/:uid/videos", userHandler.AddVideo)
			users.GET("/:uid/match-history", userHandler.MatchHistory)
		}

		games := api.Group("/games")
		games.Use(middleware.JWTAuth(authService))
		{
			games.POST("/create", roomHandler.CreateRoom)
			games.GET("/:roomId", roomHandler.GetRoom)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
