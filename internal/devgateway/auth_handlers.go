package devgateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/session"
)

const refreshTTL = 30 * 24 * time.Hour

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (u User) toExternalUser() session.ExternalUser {
	return session.ExternalUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Image: u.AvatarURL,
		Role:  u.Role,
	}
}

// issueTokens mints an access token and stores a new refresh token
func (s *Server) issueTokens(tx *gorm.DB, u User) (access, refresh string, expiresAt time.Time, err error) {
	access, expiresAt, err = s.tokens.Generate(u)
	if err != nil {
		return "", "", time.Time{}, err
	}

	refresh, err = newRefreshToken()
	if err != nil {
		return "", "", time.Time{}, err
	}

	record := &RefreshToken{Token: refresh, UserID: u.ID, ExpiresAt: time.Now().Add(refreshTTL)}
	if err := tx.Create(record).Error; err != nil {
		return "", "", time.Time{}, err
	}
	return access, refresh, expiresAt, nil
}

func (s *Server) login(c *gin.Context) {
	var req domain.Credentials
	if !s.bindJSON(c, &req) {
		return
	}

	var u User
	if err := s.db.Where("email = ?", req.Email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		s.internalError(c, err, "Failed to find user")
		return
	}

	if err := VerifyPassword(req.Password, u.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	access, refresh, expiresAt, err := s.issueTokens(s.db, u)
	if err != nil {
		s.internalError(c, err, "Failed to generate token")
		return
	}

	s.logger.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("User logged in")

	c.JSON(http.StatusOK, session.ExternalSession{
		User:         u.toExternalUser(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
}

// refresh rotates the refresh token: the presented one is revoked
func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var pair domain.TokenPair
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var record RefreshToken
		if err := tx.Where("token = ? AND revoked_at IS NULL", req.RefreshToken).First(&record).Error; err != nil {
			return err
		}
		if time.Now().After(record.ExpiresAt) {
			return gorm.ErrRecordNotFound
		}

		var u User
		if err := FindByID(tx, record.UserID, &u); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&record).Update("revoked_at", &now).Error; err != nil {
			return err
		}

		access, refresh, _, err := s.issueTokens(tx, u)
		if err != nil {
			return err
		}
		pair = domain.TokenPair{AccessToken: access, RefreshToken: refresh}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired refresh token"})
			return
		}
		s.internalError(c, err, "Failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (s *Server) logout(c *gin.Context) {
	var req refreshRequest
	if !s.bindJSON(c, &req) {
		return
	}

	now := time.Now()
	if err := s.db.Model(&RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", req.RefreshToken).
		Update("revoked_at", &now).Error; err != nil {
		s.internalError(c, err, "Failed to revoke token")
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) getCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, user(c).toExternalUser())
}
