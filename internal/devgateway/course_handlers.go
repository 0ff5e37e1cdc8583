package devgateway

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ratingStats struct {
	CourseID string
	Avg      float64
	Count    int
}

func (s *Server) ratingStats(courseIDs []string) (map[string]ratingStats, error) {
	var rows []ratingStats
	if len(courseIDs) > 0 {
		err := s.db.Model(&Rating{}).
			Select("course_id, avg(score) as avg, count(*) as count").
			Where("course_id IN ?", courseIDs).
			Group("course_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
	}

	stats := make(map[string]ratingStats, len(rows))
	for _, row := range rows {
		row.Avg = math.Round(row.Avg*10) / 10
		stats[row.CourseID] = row
	}
	return stats, nil
}

func (s *Server) courseResponse(course Course) (domain.Course, error) {
	stats, err := s.ratingStats([]string{course.ID})
	if err != nil {
		return domain.Course{}, err
	}
	st := stats[course.ID]
	return course.toDomain(st.Avg, st.Count), nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func (s *Server) listCourses(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := min(queryInt(c, "limit", defaultPageSize), maxPageSize)

	query := s.db.Model(&Course{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.internalError(c, err, "Failed to count courses")
		return
	}

	var courses []Course
	if err := query.Order("created_at ASC, id ASC").Offset((page - 1) * limit).Limit(limit).Find(&courses).Error; err != nil {
		s.internalError(c, err, "Failed to list courses")
		return
	}

	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}
	stats, err := s.ratingStats(ids)
	if err != nil {
		s.internalError(c, err, "Failed to load ratings")
		return
	}

	items := make([]domain.Course, 0, len(courses))
	for _, course := range courses {
		st := stats[course.ID]
		items = append(items, course.toDomain(st.Avg, st.Count))
	}

	c.JSON(http.StatusOK, domain.Page[domain.Course]{
		Items: items,
		Total: int(total),
		Page:  page,
		Limit: limit,
	})
}

func (s *Server) getCourse(c *gin.Context) {
	var course Course
	if !findOr404(s, c, c.Param("id"), &course, "Course") {
		return
	}

	resp, err := s.courseResponse(course)
	if err != nil {
		s.internalError(c, err, "Failed to load ratings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createCourse(c *gin.Context) {
	var req domain.CourseInput
	if !s.bindJSON(c, &req) {
		return
	}

	course := &Course{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Currency:     req.Currency,
		ThumbnailURL: req.ThumbnailURL,
		InstructorID: user(c).ID,
	}
	if err := s.db.Create(course).Error; err != nil {
		s.internalError(c, err, "Failed to create course")
		return
	}

	s.logger.Info().Str("course_id", course.ID).Str("title", course.Title).Msg("Course created")
	c.JSON(http.StatusCreated, course.toDomain(0, 0))
}

// ownCourse loads a course the current instructor may modify
func (s *Server) ownCourse(c *gin.Context) (*Course, bool) {
	var course Course
	if !findOr404(s, c, c.Param("id"), &course, "Course") {
		return nil, false
	}
	if course.InstructorID != user(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only modify your own courses"})
		return nil, false
	}
	return &course, true
}

func (s *Server) updateCourse(c *gin.Context) {
	course, ok := s.ownCourse(c)
	if !ok {
		return
	}

	var req domain.CourseInput
	if !s.bindJSON(c, &req) {
		return
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Category = req.Category
	course.Price = req.Price
	course.Currency = req.Currency
	course.ThumbnailURL = req.ThumbnailURL
	if err := s.db.Save(course).Error; err != nil {
		s.internalError(c, err, "Failed to update course")
		return
	}

	resp, err := s.courseResponse(*course)
	if err != nil {
		s.internalError(c, err, "Failed to load ratings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteCourse(c *gin.Context) {
	course, ok := s.ownCourse(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&SyllabusItem{}, &Class{}, &Rating{}, &Completion{}} {
			if err := tx.Where("course_id = ?", course.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(course).Error
	})
	if err != nil {
		s.internalError(c, err, "Failed to delete course")
		return
	}

	s.logger.Info().Str("course_id", course.ID).Msg("Course deleted")
	c.Status(http.StatusNoContent)
}

func (s *Server) listClasses(c *gin.Context) {
	var course Course
	if !findOr404(s, c, c.Param("id"), &course, "Course") {
		return
	}

	var classes []Class
	if err := s.db.Where("course_id = ?", course.ID).Order("starts_at ASC").Find(&classes).Error; err != nil {
		s.internalError(c, err, "Failed to list classes")
		return
	}

	resp := make([]domain.Class, 0, len(classes))
	for _, class := range classes {
		resp = append(resp, class.toDomain())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listSyllabus(c *gin.Context) {
	var course Course
	if !findOr404(s, c, c.Param("id"), &course, "Course") {
		return
	}

	var items []SyllabusItem
	if err := s.db.Where("course_id = ?", course.ID).Order("position ASC").Find(&items).Error; err != nil {
		s.internalError(c, err, "Failed to list syllabus")
		return
	}

	resp := make([]domain.SyllabusItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, item.toDomain(false))
	}
	c.JSON(http.StatusOK, resp)
}

// canLearn allows the course instructor and actively enrolled learners
func (s *Server) canLearn(c *gin.Context, course Course) bool {
	u := user(c)
	if course.InstructorID == u.ID {
		return true
	}

	active, err := s.activeEnrollment(u.ID, course.ID)
	if err != nil {
		s.internalError(c, err, "Failed to check enrollment")
		return false
	}
	if !active {
		c.JSON(http.StatusForbidden, gin.H{"message": "Enroll in this course to access its content"})
		return false
	}
	return true
}

func (s *Server) syllabusItem(c *gin.Context) (*Course, *SyllabusItem, bool) {
	var course Course
	if !findOr404(s, c, c.Param("id"), &course, "Course") {
		return nil, nil, false
	}

	var item SyllabusItem
	if err := s.db.Where("id = ? AND course_id = ?", c.Param("itemId"), course.ID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Syllabus item not found"})
			return nil, nil, false
		}
		s.internalError(c, err, "Failed to load syllabus item")
		return nil, nil, false
	}
	return &course, &item, true
}

func (s *Server) getSyllabusItem(c *gin.Context) {
	course, item, ok := s.syllabusItem(c)
	if !ok || !s.canLearn(c, *course) {
		return
	}
	c.JSON(http.StatusOK, item.toDomain(true))
}

func (s *Server) completeSyllabusItem(c *gin.Context) {
	course, item, ok := s.syllabusItem(c)
	if !ok || !s.canLearn(c, *course) {
		return
	}
	u := user(c)

	completion := &Completion{UserID: u.ID, ItemID: item.ID, CourseID: course.ID}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(completion).Error; err != nil {
		s.internalError(c, err, "Failed to record completion")
		return
	}

	progress, err := s.progress(u.ID, course.ID)
	if err != nil {
		s.internalError(c, err, "Failed to compute progress")
		return
	}

	if progress.Percent >= 100 {
		s.notify(s.db, u.ID, "Course completed", "You finished "+course.Title+".", "/courses/"+course.ID)
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) progress(userID, courseID string) (domain.CourseProgress, error) {
	var total int64
	if err := s.db.Model(&SyllabusItem{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return domain.CourseProgress{}, err
	}

	var completed []string
	if err := s.db.Model(&Completion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at ASC").
		Pluck("item_id", &completed).Error; err != nil {
		return domain.CourseProgress{}, err
	}

	percent := 0.0
	if total > 0 {
		percent = math.Round(float64(len(completed))*1000/float64(total)) / 10
	}
	return domain.CourseProgress{CourseID: courseID, CompletedItems: completed, Percent: percent}, nil
}

func (s *Server) rateCourse(c *gin.Context) {
	var course Course
	if !findOr404(s, c, c.Param("id"), &course, "Course") {
		return
	}

	var req domain.RatingInput
	if !s.bindJSON(c, &req) {
		return
	}

	u := user(c)
	active, err := s.activeEnrollment(u.ID, course.ID)
	if err != nil {
		s.internalError(c, err, "Failed to check enrollment")
		return
	}
	if !active {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only enrolled learners can rate this course"})
		return
	}

	rating := &Rating{CourseID: course.ID, UserID: u.ID, Score: req.Score, Comment: req.Comment}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "comment"}),
	}).Create(rating).Error
	if err != nil {
		s.internalError(c, err, "Failed to save rating")
		return
	}

	var saved Rating
	if err := s.db.Where("course_id = ? AND user_id = ?", course.ID, u.ID).First(&saved).Error; err != nil {
		s.internalError(c, err, "Failed to load rating")
		return
	}
	c.JSON(http.StatusCreated, saved.toDomain())
}

func (s *Server) listRatings(c *gin.Context) {
	var course Course
	if !findOr404(s, c, c.Param("id"), &course, "Course") {
		return
	}

	var ratings []Rating
	if err := s.db.Where("course_id = ?", course.ID).Order("created_at DESC").Find(&ratings).Error; err != nil {
		s.internalError(c, err, "Failed to list ratings")
		return
	}

	resp := make([]domain.Rating, 0, len(ratings))
	for _, rating := range ratings {
		resp = append(resp, rating.toDomain())
	}
	c.JSON(http.StatusOK, resp)
}
