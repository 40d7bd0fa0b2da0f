package handlers

import (
	"errors"
	"net/http"

	"sportevents/services/events"
	"sportevents/services/storage"
	"sportevents/services/user"
	"sportevents/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var validation *events.ValidationError
	var invalidField user.InvalidFieldError
	switch {
	case errors.Is(err, events.ErrOffline):
		return http.StatusServiceUnavailable
	case errors.Is(err, events.ErrAlreadyBooked), errors.Is(err, events.ErrEventFull):
		return http.StatusConflict
	case errors.Is(err, events.ErrEventNotFound),
		errors.Is(err, events.ErrBookingNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, storage.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrImageTooLarge), errors.Is(err, storage.ErrImageDimensions):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validation), errors.As(err, &invalidField), errors.Is(err, storage.ErrInvalidUID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.JSONError(c, status, "Internal server error", err.Error())
		return
	}
	utils.JSONError(c, status, err.Error(), "")
}

func badRequest(c *gin.Context, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	utils.JSONError(c, http.StatusBadRequest, message, details)
}
