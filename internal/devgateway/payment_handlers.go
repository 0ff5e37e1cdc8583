package devgateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// createPayment simulates a payment provider: card and wallet payments are
// captured immediately, bank transfers stay pending.
func (s *Server) createPayment(c *gin.Context) {
	var req domain.PaymentInput
	if !s.bindJSON(c, &req) {
		return
	}

	enrollment, ok := s.ownEnrollment(c, req.EnrollmentID)
	if !ok {
		return
	}
	if enrollment.Status != domain.EnrollmentPending {
		c.JSON(http.StatusConflict, gin.H{"message": "This enrollment does not require payment"})
		return
	}

	var course Course
	if !findOr404(s, c, enrollment.CourseID, &course, "Course") {
		return
	}

	status := domain.PaymentSucceeded
	if req.Method == "bank_transfer" {
		status = domain.PaymentPending
	}

	payment := &Payment{
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.UserID,
		Amount:       course.Price,
		Currency:     course.Currency,
		Method:       req.Method,
		Status:       status,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		updates := map[string]any{"payment_id": payment.ID}
		if status == domain.PaymentSucceeded {
			updates["status"] = domain.EnrollmentActive
		}
		if err := tx.Model(enrollment).Updates(updates).Error; err != nil {
			return err
		}

		if status == domain.PaymentSucceeded {
			s.notify(tx, enrollment.UserID, "Payment received", "You now have access to "+course.Title+".", "/courses/"+course.ID)
		}
		return nil
	})
	if err != nil {
		s.internalError(c, err, "Failed to create payment")
		return
	}

	s.logger.Info().Str("payment_id", payment.ID).Str("status", status).Msg("Payment created")
	c.JSON(http.StatusCreated, payment.toDomain())
}

func (s *Server) getPayment(c *gin.Context) {
	var payment Payment
	err := s.db.Where("id = ? AND user_id = ?", c.Param("id"), user(c).ID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Payment not found"})
			return
		}
		s.internalError(c, err, "Failed to load payment")
		return
	}
	c.JSON(http.StatusOK, payment.toDomain())
}

func (s *Server) listPayments(c *gin.Context) {
	var payments []Payment
	if err := s.db.Where("user_id = ?", user(c).ID).Order("created_at DESC").Find(&payments).Error; err != nil {
		s.internalError(c, err, "Failed to list payments")
		return
	}

	resp := make([]domain.Payment, 0, len(payments))
	for _, payment := range payments {
		resp = append(resp, payment.toDomain())
	}
	c.JSON(http.StatusOK, resp)
}
