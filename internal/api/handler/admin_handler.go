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

type AdminHandler struct {
	lotService         *service.LotService
	reservationService *service.ReservationService
	authService        *service.AuthService
}

func NewAdminHandler(ls *service.LotService, rs *service.ReservationService, as *service.AuthService) *AdminHandler {
	return &AdminHandler{lotService: ls, reservationService: rs, authService: as}
}

// POST /api/admin/lots
func (h *AdminHandler) CreateLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.lotService.CreateLot(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create parking lot", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /api/admin/lots
func (h *AdminHandler) ListLots(c *gin.Context) {
	lots, err := h.lotService.ListLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list parking lots"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GET /api/admin/lots/:id
func (h *AdminHandler) GetLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	lot, err := h.lotService.GetLot(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load parking lot"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// PUT /api/admin/lots/:id
func (h *AdminHandler) UpdateLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	var dto domain.ParkingLotUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.lotService.UpdateLot(c.Request.Context(), id, dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrCapacityConflict):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrTxConflict):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "update conflict, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update parking lot", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /api/admin/lots/:id
func (h *AdminHandler) DeleteLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	if err := h.lotService.DeleteLot(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrLotOccupied):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrTxConflict):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "delete conflict, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete parking lot", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parking lot deleted"})
}

// GET /api/admin/lots/:id/spots
func (h *AdminHandler) ListSpots(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	spots, err := h.lotService.ListSpots(c.Request.Context(), lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list spots"})
		return
	}
	c.JSON(http.StatusOK, spots)
}

// GET /api/admin/spots/:id
func (h *AdminHandler) GetSpot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	spot, err := h.lotService.GetSpot(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking spot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load parking spot"})
		return
	}
	c.JSON(http.StatusOK, spot)
}

// DELETE /api/admin/spots/:id
func (h *AdminHandler) DeleteSpot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	if err := h.lotService.DeleteSpot(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking spot not found"})
		case errors.Is(err, service.ErrSpotOccupied):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrTxConflict):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "delete conflict, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete parking spot", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parking spot deleted"})
}

// GET /api/admin/spots/:id/reservation
func (h *AdminHandler) SpotReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	report, err := h.reservationService.CurrentCost(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking spot not found"})
		case errors.Is(err, service.ErrSpotNotOccupied):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNoActiveReservation):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load reservation"})
		}
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /api/admin/search?location=...
func (h *AdminHandler) Search(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	lots, err := h.lotService.AdminSearch(c.Request.Context(), c.Query("location"), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search lots"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GET /api/admin/summary
func (h *AdminHandler) Summary(c *gin.Context) {
	summary, err := h.lotService.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
