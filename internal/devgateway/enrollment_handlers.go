package devgateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// ownEnrollment loads an enrollment of the current user
func (s *Server) ownEnrollment(c *gin.Context, id string) (*Enrollment, bool) {
	var enrollment Enrollment
	err := s.db.Where("id = ? AND user_id = ?", id, user(c).ID).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Enrollment not found"})
			return nil, false
		}
		s.internalError(c, err, "Failed to load enrollment")
		return nil, false
	}
	return &enrollment, true
}

// enroll creates an enrollment; free courses activate immediately
func (s *Server) enroll(c *gin.Context) {
	var req domain.EnrollmentInput
	if !s.bindJSON(c, &req) {
		return
	}

	var course Course
	if !findOr404(s, c, req.CourseID, &course, "Course") {
		return
	}
	u := user(c)

	var existing int64
	if err := s.db.Model(&Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", u.ID, course.ID, domain.EnrollmentCancelled).
		Count(&existing).Error; err != nil {
		s.internalError(c, err, "Failed to check enrollment")
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "You are already enrolled in this course"})
		return
	}

	status := domain.EnrollmentPending
	if course.Price == 0 {
		status = domain.EnrollmentActive
	}

	enrollment := &Enrollment{CourseID: course.ID, UserID: u.ID, Status: status}
	if err := s.db.Create(enrollment).Error; err != nil {
		s.internalError(c, err, "Failed to create enrollment")
		return
	}

	if status == domain.EnrollmentActive {
		s.notify(s.db, u.ID, "Enrolled in "+course.Title, "Your course is ready. Happy learning!", "/courses/"+course.ID)
	} else {
		s.notify(s.db, u.ID, "Complete your enrollment", "Pay for "+course.Title+" to start learning.", "/enrollments/"+enrollment.ID)
	}

	s.logger.Info().Str("user_id", u.ID).Str("course_id", course.ID).Str("status", status).Msg("Enrollment created")
	c.JSON(http.StatusCreated, enrollment.toDomain())
}

func (s *Server) listEnrollments(c *gin.Context) {
	var enrollments []Enrollment
	if err := s.db.Where("user_id = ?", user(c).ID).Order("created_at DESC").Find(&enrollments).Error; err != nil {
		s.internalError(c, err, "Failed to list enrollments")
		return
	}

	resp := make([]domain.Enrollment, 0, len(enrollments))
	for _, enrollment := range enrollments {
		resp = append(resp, enrollment.toDomain())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) cancelEnrollment(c *gin.Context) {
	enrollment, ok := s.ownEnrollment(c, c.Param("id"))
	if !ok {
		return
	}
	if enrollment.Status == domain.EnrollmentCancelled {
		c.JSON(http.StatusConflict, gin.H{"message": "Enrollment is already cancelled"})
		return
	}

	if err := s.db.Model(enrollment).Update("status", domain.EnrollmentCancelled).Error; err != nil {
		s.internalError(c, err, "Failed to cancel enrollment")
		return
	}
	enrollment.Status = domain.EnrollmentCancelled

	c.JSON(http.StatusOK, enrollment.toDomain())
}
