package devgateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

func (s *Server) loadTest(c *gin.Context) (*Test, bool) {
	var test Test
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ?", c.Param("id")).First(&test).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Test not found"})
			return nil, false
		}
		s.internalError(c, err, "Failed to load test")
		return nil, false
	}
	return &test, true
}

func (s *Server) getTest(c *gin.Context) {
	test, ok := s.loadTest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, test.toDomain())
}

// submitTest grades the answers: one point per correct option
func (s *Server) submitTest(c *gin.Context) {
	test, ok := s.loadTest(c)
	if !ok {
		return
	}

	var req domain.Submission
	if !s.bindJSON(c, &req) {
		return
	}

	correct := make(map[string]int, len(test.Questions))
	for _, q := range test.Questions {
		correct[q.ID] = q.CorrectIndex
	}

	score := 0
	for _, answer := range req.Answers {
		want, known := correct[answer.QuestionID]
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Unknown question %s", answer.QuestionID)})
			return
		}
		if answer.OptionIndex == want {
			score++
		}
	}

	maxScore := len(test.Questions)
	graded := &TestResult{
		TestID:   test.ID,
		UserID:   user(c).ID,
		Score:    score,
		MaxScore: maxScore,
		Passed:   maxScore > 0 && score*100 >= test.PassPercent*maxScore,
	}
	if err := s.db.Create(graded).Error; err != nil {
		s.internalError(c, err, "Failed to save result")
		return
	}

	s.notify(s.db, graded.UserID, "Test graded", fmt.Sprintf("%s: %d/%d", test.Title, score, maxScore), "/tests/"+test.ID)
	c.JSON(http.StatusCreated, graded.toDomain())
}

func (s *Server) getTestResult(c *gin.Context) {
	var graded TestResult
	err := s.db.Where("test_id = ? AND user_id = ?", c.Param("id"), user(c).ID).
		Order("created_at DESC, id DESC").
		First(&graded).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "No result for this test yet"})
			return
		}
		s.internalError(c, err, "Failed to load result")
		return
	}
	c.JSON(http.StatusOK, graded.toDomain())
}
