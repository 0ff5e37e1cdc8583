package devgateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// checkIn is idempotent: checking in twice returns the first record
func (s *Server) checkIn(c *gin.Context) {
	var class Class
	if !findOr404(s, c, c.Param("id"), &class, "Class") {
		return
	}
	u := user(c)

	active, err := s.activeEnrollment(u.ID, class.CourseID)
	if err != nil {
		s.internalError(c, err, "Failed to check enrollment")
		return
	}
	if !active {
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not enrolled in this course"})
		return
	}

	var record Attendance
	err = s.db.Where("class_id = ? AND user_id = ?", class.ID, u.ID).First(&record).Error
	switch {
	case err == nil:
		c.JSON(http.StatusOK, record.toDomain())
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.internalError(c, err, "Failed to load attendance")
		return
	}

	record = Attendance{ClassID: class.ID, UserID: u.ID}
	if err := s.db.Create(&record).Error; err != nil {
		s.internalError(c, err, "Failed to check in")
		return
	}
	c.JSON(http.StatusCreated, record.toDomain())
}

func (s *Server) listAttendance(c *gin.Context) {
	var class Class
	if !findOr404(s, c, c.Param("id"), &class, "Class") {
		return
	}

	var records []Attendance
	if err := s.db.Where("class_id = ?", class.ID).Order("created_at ASC").Find(&records).Error; err != nil {
		s.internalError(c, err, "Failed to list attendance")
		return
	}

	resp := make([]domain.AttendanceRecord, 0, len(records))
	for _, record := range records {
		resp = append(resp, record.toDomain())
	}
	c.JSON(http.StatusOK, resp)
}
