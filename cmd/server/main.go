package main

import (
	"fmt"
	"log"
	"net/http"

	"kinship/backend/internal/auth"
	"kinship/backend/internal/config"
	"kinship/backend/internal/database"
	"kinship/backend/internal/handler"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Kinship API
// @version         1.0
// @description     This is the API for the Kinship relationship tracking service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
		}

		// Relationship routes (protected)
		relRoutes := apiV1.Group("/relationships")
		relRoutes.Use(auth.AuthMiddleware())
		{
			relRoutes.POST("", handler.CreateRelationship)
			relRoutes.GET("", handler.ListRelationships)
			relRoutes.GET("/:id", handler.GetRelationship)
			relRoutes.PUT("/:id", handler.UpdateRelationship)
			relRoutes.DELETE("/:id", handler.DeleteRelationship)

			// Invitation transitions
			relRoutes.POST("/:id/accept", handler.AcceptRelationship)
			relRoutes.POST("/:id/decline", handler.DeclineRelationship)

			// Breakup transitions
			relRoutes.POST("/:id/request-breakup", handler.RequestBreakup)
			relRoutes.POST("/:id/confirm-breakup", handler.ConfirmBreakup)

			// Type-change negotiation
			relRoutes.POST("/:id/request-type-change", handler.RequestTypeChange)
			relRoutes.POST("/:id/accept-type-change", handler.AcceptTypeChange)
			relRoutes.POST("/:id/decline-type-change", handler.DeclineTypeChange)
			relRoutes.POST("/:id/cancel-type-change", handler.CancelTypeChange)
		}

		// Certificate routes (protected)
		certRoutes := apiV1.Group("/certificates")
		certRoutes.Use(auth.AuthMiddleware())
		{
			certRoutes.POST("/relationship/:id/generate", handler.GenerateCertificate)
		}
	}

	addr := ":" + config.AppConfig.Port
	fmt.Printf("Server is running on %s\n", addr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(addr))
}
