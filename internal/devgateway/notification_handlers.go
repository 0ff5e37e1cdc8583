package devgateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

func (s *Server) listNotifications(c *gin.Context) {
	var notifications []Notification
	if err := s.db.Where("user_id = ?", user(c).ID).Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		s.internalError(c, err, "Failed to list notifications")
		return
	}

	resp := make([]domain.Notification, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, n.toDomain())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	res := s.db.Model(&Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), user(c).ID).
		Update("read", true)
	if res.Error != nil {
		s.internalError(c, res.Error, "Failed to update notification")
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) markAllNotificationsRead(c *gin.Context) {
	if err := s.db.Model(&Notification{}).
		Where("user_id = ? AND read = ?", user(c).ID, false).
		Update("read", true).Error; err != nil {
		s.internalError(c, err, "Failed to update notifications")
		return
	}
	c.Status(http.StatusNoContent)
}
