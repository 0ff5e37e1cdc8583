package devgateway

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	bearerPrefix  = "Bearer "
	userKey       = "user"
	requestIDKey  = "request_id"
	requestHeader = "X-Request-ID"
	userIDHeader  = "X-User-Id"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserMismatch      = errors.New("user id header does not match token")
)

func newRequestID() string {
	return ulid.Make().String()
}

func setUser(c *gin.Context, user *User) {
	c.Set(userKey, user)
}

// CurrentUser returns the authenticated user of the request
func CurrentUser(c *gin.Context) (*User, bool) {
	value, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}

	user, ok := value.(*User)
	return user, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.AbortWithStatusJSON(statusCode, gin.H{"message": message})
}

// requestIDMiddleware echoes the caller's request ID or assigns one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestHeader)
		if id == "" {
			id = newRequestID()
		}
		c.Set(requestIDKey, id)
		c.Header(requestHeader, id)
		c.Next()
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("HTTP request")
	}
}

// JWTAuthMiddleware validates the access token. allowQuery also accepts a
// token query parameter, used by websocket handshakes.
func JWTAuthMiddleware(db *gorm.DB, tokens *Tokens, log zerolog.Logger, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil && allowQuery && c.Query("token") != "" {
			token, err = c.Query("token"), nil
		}
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate JWT token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// The client derives this header from the token; a mismatch means tampering
		if headerID := c.GetHeader(userIDHeader); headerID != "" && headerID != claims.Subject {
			respondWithError(c, log, http.StatusUnauthorized, ErrUserMismatch, "Invalid or expired token")
			return
		}

		var user User
		if err := FindByID(db, claims.Subject, &user); err != nil {
			log.Warn().Err(err).Str("user_id", claims.Subject).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		setUser(c, &user)
		c.Next()
	}
}

// InstructorOnlyMiddleware ensures the authenticated user is an instructor
func InstructorOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := CurrentUser(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if user.Role != RoleInstructor {
			respondWithError(c, log, http.StatusForbidden, errors.New("not instructor"), "Instructor access required")
			return
		}

		c.Next()
	}
}
