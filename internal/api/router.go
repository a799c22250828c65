package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/padmajamazumder/parkit/internal/api/handler"
	"github.com/padmajamazumder/parkit/internal/api/middleware"
	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/service"
)

func SetupRouter(
	as *service.AuthService,
	rs *service.ReservationService,
	ls *service.LotService,
	authMw *middleware.AuthMiddleware,
) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		AllowCredentials: false,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	reservationHandler := handler.NewReservationHandler(rs)
	userRoutes := r.Group("/api/user")
	userRoutes.Use(authMw.Authenticate())
	{
		userRoutes.POST("/book", reservationHandler.BookSpot)
		userRoutes.POST("/release/:id", reservationHandler.ReleaseSpot)
		userRoutes.GET("/dashboard", reservationHandler.Dashboard)
		userRoutes.GET("/search", reservationHandler.SearchLots)
	}

	adminHandler := handler.NewAdminHandler(ls, rs, as)
	adminRoutes := r.Group("/api/admin")
	adminRoutes.Use(authMw.Authenticate(), authMw.AuthorizeRole(domain.RoleAdmin))
	{
		adminRoutes.POST("/lots", adminHandler.CreateLot)
		adminRoutes.GET("/lots", adminHandler.ListLots)
		adminRoutes.GET("/lots/:id", adminHandler.GetLot)
		adminRoutes.PUT("/lots/:id", adminHandler.UpdateLot)
		adminRoutes.DELETE("/lots/:id", adminHandler.DeleteLot)
		adminRoutes.GET("/lots/:id/spots", adminHandler.ListSpots)

		adminRoutes.GET("/spots/:id", adminHandler.GetSpot)
		adminRoutes.DELETE("/spots/:id", adminHandler.DeleteSpot)
		adminRoutes.GET("/spots/:id/reservation", adminHandler.SpotReservation)

		adminRoutes.GET("/users", adminHandler.ListUsers)
		adminRoutes.GET("/search", adminHandler.Search)
		adminRoutes.GET("/summary", adminHandler.Summary)
	}

	return r
}
