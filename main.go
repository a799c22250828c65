package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/padmajamazumder/parkit/internal/api"
	"github.com/padmajamazumder/parkit/internal/api/middleware"
	"github.com/padmajamazumder/parkit/internal/config"
	"github.com/padmajamazumder/parkit/internal/repository/postgresql"
	"github.com/padmajamazumder/parkit/internal/service"
)

func main() {
	// 1. Load configuration
	cfg := config.Load()
	log.Println("Configuration loaded.")

	// 2. Setup database connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connection established.")

	// 3. Initialize repositories
	userRepo := postgresql.NewPgUserRepository(db)
	lotRepo := postgresql.NewPgParkingLotRepository(db)
	spotRepo := postgresql.NewPgParkingSpotRepository(db)
	reservationRepo := postgresql.NewPgReservationRepository(db)
	txManager := postgresql.NewTxManager(db)

	// 4. Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	reservationService := service.NewReservationService(lotRepo, spotRepo, reservationRepo, txManager)
	lotService := service.NewLotService(lotRepo, spotRepo, reservationRepo, userRepo, txManager)

	// 5. Seed the admin account
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminFullname); err != nil {
		cancelSeed()
		log.Fatalf("Could not seed admin account: %v", err)
	}
	cancelSeed()

	// 6. Setup HTTP router
	authMiddleware := middleware.NewAuthMiddleware(authService)
	router := api.SetupRouter(authService, reservationService, lotService, authMiddleware)

	// 7. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shut down: %v", err)
	}

	log.Println("Server stopped.")
}
