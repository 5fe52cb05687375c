package middleware

import (
	"net/http"
	"strings"

	"task-tracker/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

type AuthConfig struct {
	Secret string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
}

// Claims are issued by the login endpoint of the user service.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticate verifies the bearer token and stores the caller's
// ActorContext on the request.
func Authenticate(config AuthConfig) gin.HandlerFunc {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
	}
	if config.Issuer != "" {
		options = append(options, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(options...)
	secret := []byte(config.Secret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, tokenStr, found := strings.Cut(authHeader, " ")
		if authHeader == "" || !found || tokenStr == "" {
			abort(c, http.StatusUnauthorized, "No token provided", "")
			return
		}
		if !strings.EqualFold(scheme, "Bearer") {
			abort(c, http.StatusUnauthorized, "Authorization header must use Bearer token", "")
			return
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token", err.Error())
			return
		}

		userID, err := uuid.FromString(claims.UserID)
		if err != nil || userID == uuid.Nil {
			abort(c, http.StatusUnauthorized, "Invalid token", "token subject is not a user id")
			return
		}

		c.Set(actorKey, models.NewActorContext(userID, claims.Email))
		c.Next()
	}
}

// ActorFromContext returns the actor stored by Authenticate. The zero
// ActorContext is returned on unauthenticated routes.
func ActorFromContext(c *gin.Context) models.ActorContext {
	if value, ok := c.Get(actorKey); ok {
		if actor, ok := value.(models.ActorContext); ok {
			return actor
		}
	}
	return models.ActorContext{}
}

// SetActor is used by tests and by trusted internal callers.
func SetActor(c *gin.Context, actor models.ActorContext) {
	c.Set(actorKey, actor)
}
