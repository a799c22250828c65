package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/padmajamazumder/parkit/internal/api/middleware"
	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"
	"github.com/padmajamazumder/parkit/internal/service"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// POST /api/user/book
func (h *ReservationHandler) BookSpot(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var dto domain.BookSpotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conf, err := h.reservationService.Book(c.Request.Context(), userID, dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, repository.ErrNoSpotAvailable):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrTxConflict):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking conflict, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not book spot", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, conf)
}

// POST /api/user/release/:id
func (h *ReservationHandler) ReleaseSpot(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	reservationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	cost, err := h.reservationService.Release(c.Request.Context(), userID, reservationID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyReleased):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrTxConflict):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "release conflict, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not release spot", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "spot released", "cost": cost})
}

// GET /api/user/dashboard
func (h *ReservationHandler) Dashboard(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	reservations, err := h.reservationService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// GET /api/user/search?location=...
func (h *ReservationHandler) SearchLots(c *gin.Context) {
	lots, err := h.reservationService.SearchLots(c.Request.Context(), c.Query("location"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search lots"})
		return
	}
	c.JSON(http.StatusOK, lots)
}
