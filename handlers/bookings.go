package handlers

import (
	"net/http"

	"sportevents/middleware"
	"sportevents/services/analytics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *HandlerBundle) GetBookingStatus(c *gin.Context) {
	booked, err := h.Events.HasBooking(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventId": c.Param("id"), "booked": booked})
}

func (h *HandlerBundle) CreateBooking(c *gin.Context) {
	eventID := c.Param("id")
	if err := h.Events.CreateBooking(c.Request.Context(), eventID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"eventId": eventID, "booked": true})
}

func (h *HandlerBundle) CancelBooking(c *gin.Context) {
	eventID := c.Param("id")
	if err := h.Events.CancelBooking(c.Request.Context(), eventID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventId": eventID, "booked": false})
}

func (h *HandlerBundle) GetMyBookings(c *gin.Context) {
	writeResult(c, h.Events.GetReservedEvents(c.Request.Context(), middleware.UserID(c)))
}

// RefreshMyBookings reloads the caller's bookings into the cache, typically after sign-in.
func (h *HandlerBundle) RefreshMyBookings(c *gin.Context) {
	uid := middleware.UserID(c)
	if err := h.Events.PopulateUserBookings(c.Request.Context(), uid); err != nil {
		respondError(c, err)
		return
	}
	writeResult(c, h.Events.GetReservedEvents(c.Request.Context(), uid))
}

// ClearMyBookingCache drops the caller's cached booking state, typically on sign-out.
func (h *HandlerBundle) ClearMyBookingCache(c *gin.Context) {
	h.Events.ClearBookingCache(middleware.UserID(c))
	c.Status(http.StatusNoContent)
}

type sportViewRequest struct {
	Sport string `json:"sport" binding:"required"`
}

// RecordSportView counts a view of a sport page and returns the caller's favourite sport.
func (h *HandlerBundle) RecordSportView(c *gin.Context) {
	var req sportViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input", err)
		return
	}

	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	if h.Recorder != nil {
		h.Recorder.LogEvent(ctx, analytics.EventSportViewed, map[string]string{"sport": req.Sport})
	}
	if h.Prefs == nil {
		c.JSON(http.StatusAccepted, gin.H{"sport": req.Sport})
		return
	}

	favourite, err := h.Prefs.IncrementSportView(ctx, uid, req.Sport)
	if err != nil {
		h.Logger.Warn("failed to record sport view", zap.String("userID", uid), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sport": req.Sport, "mostViewedSport": favourite})
}
