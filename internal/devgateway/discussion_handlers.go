package devgateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/chat"
	"github.com/coursehub-dev/coursehub/internal/domain"
)

const messageHistoryLimit = 100

func (s *Server) listMessages(c *gin.Context) {
	var class Class
	if !findOr404(s, c, c.Param("id"), &class, "Class") {
		return
	}

	// Latest messages, returned oldest first
	var messages []ChatMessage
	if err := s.db.Where("class_id = ?", class.ID).
		Order("created_at DESC, id DESC").
		Limit(messageHistoryLimit).
		Find(&messages).Error; err != nil {
		s.internalError(c, err, "Failed to list messages")
		return
	}

	resp := make([]domain.Message, len(messages))
	for i, msg := range messages {
		resp[len(messages)-1-i] = msg.toDomain()
	}
	c.JSON(http.StatusOK, resp)
}

// postMessage stores a message and fans it out to the class chat room
func (s *Server) postMessage(c *gin.Context) {
	var class Class
	if !findOr404(s, c, c.Param("id"), &class, "Class") {
		return
	}

	var req domain.MessageInput
	if !s.bindJSON(c, &req) {
		return
	}

	msg, err := saveMessage(s.db, class.ID, *user(c), req.Text)
	if err != nil {
		s.internalError(c, err, "Failed to save message")
		return
	}

	if event, err := chat.NewEvent(chat.EventNewMessage, msg.toDomain()); err == nil {
		s.hub.Broadcast(class.ID, event, nil)
	}
	c.JSON(http.StatusCreated, msg.toDomain())
}

func saveMessage(db *gorm.DB, classID string, sender User, text string) (*ChatMessage, error) {
	msg := &ChatMessage{ClassID: classID, SenderID: sender.ID, SenderName: sender.Name, Text: text}
	if err := db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Server) reportMessage(c *gin.Context) {
	var msg ChatMessage
	if !findOr404(s, c, c.Param("id"), &msg, "Message") {
		return
	}

	var req domain.ReportInput
	if !s.bindJSON(c, &req) {
		return
	}
	u := user(c)

	var existing Report
	err := s.db.Where("user_id = ? AND target_type = ? AND target_id = ?", u.ID, domain.ReportTargetMessage, msg.ID).First(&existing).Error
	switch {
	case err == nil:
		c.JSON(http.StatusConflict, gin.H{"message": "You have already reported this message"})
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.internalError(c, err, "Failed to check reports")
		return
	}

	report := &Report{UserID: u.ID, TargetType: domain.ReportTargetMessage, TargetID: msg.ID, Reason: req.Reason}
	if err := s.db.Create(report).Error; err != nil {
		s.internalError(c, err, "Failed to save report")
		return
	}

	s.logger.Info().Str("message_id", msg.ID).Str("user_id", u.ID).Msg("Message reported")
	c.JSON(http.StatusCreated, report.toDomain())
}
