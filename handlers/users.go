package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"sportevents/middleware"
	"sportevents/models"
	"sportevents/services/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetMe returns the caller's profile, creating it on first sign-in.
func (h *HandlerBundle) GetMe(c *gin.Context) {
	profile, err := h.Users.EnsureProfile(c.Request.Context(), middleware.UserID(c), c.GetString(middleware.ContextEmail))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *HandlerBundle) UpdateMe(c *gin.Context) {
	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input", err)
		return
	}
	profile, err := h.Users.UpdateProfile(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type fcmTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *HandlerBundle) UpdateFCMToken(c *gin.Context) {
	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input", err)
		return
	}
	if err := h.Users.UpdateFCMToken(c.Request.Context(), middleware.UserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}

// StreamMe pushes the caller's profile as server-sent events until the client disconnects.
func (h *HandlerBundle) StreamMe(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.Users.WatchProfile(ctx, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case upd, ok := <-sub.Updates():
			if !ok {
				return false
			}
			if upd.Err != nil {
				c.SSEvent("error", gin.H{"message": upd.Err.Error()})
				return false
			}
			c.SSEvent("profile", upd.Value)
			return true
		}
	})
}

// UploadMyImage accepts either a multipart "image" field or a raw image body.
func (h *HandlerBundle) UploadMyImage(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			badRequest(c, "image file is required", err)
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "could not read image", err)
			return
		}
		defer f.Close()
		body = f
	}

	if err := h.Users.UploadProfileImage(c.Request.Context(), middleware.UserID(c), body); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile image updated"})
}

// GetUserImage serves a stored profile image as JPEG, scaled to fit w x h.
func (h *HandlerBundle) GetUserImage(c *gin.Context) {
	width, height := h.ImageMaxDim, h.ImageMaxDim
	if raw := c.Query("w"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			badRequest(c, "w must be a positive integer", err)
			return
		}
		width = v
	}
	if raw := c.Query("h"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			badRequest(c, "h must be a positive integer", err)
			return
		}
		height = v
	}

	img, err := h.Users.LoadProfileImage(c.Param("id"), width, height)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", "image/jpeg")
	c.Status(http.StatusOK)
	if err := storage.EncodeJPEG(c.Writer, img); err != nil {
		h.Logger.Warn("failed to write profile image", zap.String("userID", c.Param("id")), zap.Error(err))
	}
}
