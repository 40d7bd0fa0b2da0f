package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"sportevents/middleware"
	"sportevents/models"
	"sportevents/services/events"

	"github.com/gin-gonic/gin"
)

const defaultNearbyRadiusMeters = 5000.0

type resultResponse struct {
	Status  events.Status  `json:"status"`
	Events  []models.Event `json:"events"`
	Message string         `json:"message,omitempty"`
}

// writeResult answers success and stale results with 200 and errors with their mapped status.
func writeResult(c *gin.Context, r events.Result) {
	if r.Status == events.StatusError {
		c.AbortWithStatusJSON(statusFor(r.Err), resultResponse{
			Status:  r.Status,
			Events:  []models.Event{},
			Message: r.Err.Error(),
		})
		return
	}
	resp := resultResponse{Status: r.Status, Events: r.Events}
	if resp.Events == nil {
		resp.Events = []models.Event{}
	}
	if r.Status == events.StatusStale {
		resp.Message = "showing cached events"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HandlerBundle) GetEvents(c *gin.Context) {
	writeResult(c, h.Events.GetAllEvents(c.Request.Context()))
}

func (h *HandlerBundle) GetNearbyEvents(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	point := models.GeoPoint{Latitude: lat, Longitude: lng}
	if errLat != nil || errLng != nil || !point.Valid() {
		badRequest(c, "lat and lng must be valid coordinates", nil)
		return
	}

	radius := defaultNearbyRadiusMeters
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			badRequest(c, "radius must be a positive number of meters", err)
			return
		}
		radius = r
	}
	writeResult(c, h.Events.GetNearbyEvents(c.Request.Context(), point, radius))
}

func (h *HandlerBundle) SearchEvents(c *gin.Context) {
	var q models.EventSearch
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid search query", err)
		return
	}
	writeResult(c, h.Events.SearchEvents(c.Request.Context(), q))
}

// GetRecommendedEvents uses the sports query parameter, or the caller's sport list when absent.
func (h *HandlerBundle) GetRecommendedEvents(c *gin.Context) {
	ctx := c.Request.Context()
	var sports []string
	if raw := c.Query("sports"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sports = append(sports, s)
			}
		}
	} else {
		profile, err := h.Users.GetProfile(ctx, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		sports = profile.SportList
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	recommended, err := h.Events.GetRecommendedEvents(ctx, sports, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": recommended})
}

func (h *HandlerBundle) GetEvent(c *gin.Context) {
	event, err := h.Events.GetEventByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

type createEventRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Sport       string    `json:"sport" binding:"required"`
	SkillLevel  string    `json:"skillLevel"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required"`
	MaxCapacity int       `json:"maxCapacity"`
	VenueID     string    `json:"venueId"`
}

// CreateEvent posts a new event organised by the caller.
func (h *HandlerBundle) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input", err)
		return
	}

	event := &models.Event{
		Name:        req.Name,
		Description: req.Description,
		Sport:       req.Sport,
		SkillLevel:  req.SkillLevel,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
		VenueID:     req.VenueID,
		OrganizerID: middleware.UserID(c),
	}
	if err := h.Events.CreateEvent(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

type updateEventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Sport       *string    `json:"sport"`
	SkillLevel  *string    `json:"skillLevel"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	MaxCapacity *int       `json:"maxCapacity"`
}

func (r updateEventRequest) fields() map[string]any {
	fields := map[string]any{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Sport != nil {
		fields["sport"] = *r.Sport
	}
	if r.SkillLevel != nil {
		fields["skill_level"] = *r.SkillLevel
	}
	if r.StartTime != nil {
		fields["start_time"] = *r.StartTime
	}
	if r.EndTime != nil {
		fields["end_time"] = *r.EndTime
	}
	if r.MaxCapacity != nil {
		fields["max_capacity"] = *r.MaxCapacity
	}
	return fields
}

// UpdateEvent lets the organizer change an event.
func (h *HandlerBundle) UpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input", err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	current, err := h.Events.GetEventByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if current.OrganizerID != middleware.UserID(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "only the organizer can update this event"})
		return
	}

	updated, err := h.Events.UpdateEvent(ctx, id, req.fields())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *HandlerBundle) GetVenues(c *gin.Context) {
	venues, err := h.Events.GetVenues(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venues": venues})
}

func (h *HandlerBundle) GetSports(c *gin.Context) {
	sports, err := h.Events.GetSports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sports": sports})
}

func (h *HandlerBundle) GetSkillLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"skillLevels": h.Events.GetSkillLevels()})
}

func (h *HandlerBundle) GetPostedEvents(c *gin.Context) {
	posted, err := h.Events.GetPostedEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": posted})
}
