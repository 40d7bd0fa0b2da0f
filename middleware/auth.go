package middleware

import (
	"context"
	"net/http"
	"strings"

	"sportevents/utils"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

// TokenVerifier validates a bearer token and returns its owner.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// FirebaseVerifier checks Firebase Auth ID tokens.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	email, _ := t.Claims["email"].(string)
	return Identity{UserID: t.UID, Email: email}, nil
}

// JWTVerifier checks HS256 tokens signed with a shared secret. Used for local development.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	sub, email, err := utils.ExtractClaims(v.secret, token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: sub, Email: email}, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's uid and email in the gin context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "missing bearer token")
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(tokenString))
		if err != nil || identity.UserID == "" {
			zap.L().Debug("token rejected", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "invalid or expired token")
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextEmail, identity.Email)
		c.Next()
	}
}

// UserID returns the authenticated uid, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
