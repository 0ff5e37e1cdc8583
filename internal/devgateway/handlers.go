package devgateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// bindJSON decodes and validates the request body, responding 400 on failure
func (s *Server) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return false
	}
	return true
}

func (s *Server) internalError(c *gin.Context, err error, message string) {
	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// findOr404 loads a record by ID, responding 404 (or 500) when it cannot
func findOr404[T any](s *Server, c *gin.Context, id string, model *T, what string) bool {
	if err := FindByID(s.db, id, model); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": what + " not found"})
			return false
		}
		s.internalError(c, err, "Failed to load "+what)
		return false
	}
	return true
}

// user returns the authenticated user; routes using it sit behind JWTAuthMiddleware
func user(c *gin.Context) *User {
	u, _ := CurrentUser(c)
	return u
}

// notify creates a notification; failures are logged, not returned
func (s *Server) notify(tx *gorm.DB, userID, title, body, link string) {
	n := &Notification{UserID: userID, Title: title, Body: body, Link: link}
	if err := tx.Create(n).Error; err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to create notification")
	}
}

// activeEnrollment reports whether the user has an active enrollment in the course
func (s *Server) activeEnrollment(userID, courseID string) (bool, error) {
	var count int64
	err := s.db.Model(&Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, domain.EnrollmentActive).
		Count(&count).Error
	return count > 0, err
}
