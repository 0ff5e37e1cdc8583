package actions

import (
	"context"
	"net/url"
	"strconv"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// ListCourses searches the course catalog
func (a *Actions) ListCourses(ctx context.Context, q domain.CourseQuery) result.Result[domain.Page[domain.Course]] {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	var page domain.Page[domain.Course]
	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Get(ctx, "/courses", query, &page)
	})
	return finish(a, "list courses", page, err, "")
}

// GetCourse fetches a single course
func (a *Actions) GetCourse(ctx context.Context, courseID string) result.Result[domain.Course] {
	var course domain.Course
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "get course", course, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Get(ctx, "/courses/"+seg(courseID), nil, &course)
	})
	return finish(a, "get course", course, err, "")
}

// CreateCourse creates a course (instructors only)
func (a *Actions) CreateCourse(ctx context.Context, input domain.CourseInput) result.Result[domain.Course] {
	var course domain.Course
	if err := a.check(input); err != nil {
		return finish(a, "create course", course, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Post(ctx, "/courses", input, &course)
	})
	return finish(a, "create course", course, err, "Course created")
}

// UpdateCourse replaces the editable fields of a course
func (a *Actions) UpdateCourse(ctx context.Context, courseID string, input domain.CourseInput) result.Result[domain.Course] {
	var course domain.Course
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "update course", course, err, "")
	}
	if err := a.check(input); err != nil {
		return finish(a, "update course", course, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Patch(ctx, "/courses/"+seg(courseID), input, &course)
	})
	return finish(a, "update course", course, err, "Course updated")
}

// DeleteCourse removes a course
func (a *Actions) DeleteCourse(ctx context.Context, courseID string) result.Result[struct{}] {
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "delete course", struct{}{}, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Delete(ctx, "/courses/"+seg(courseID), nil)
	})
	return finish(a, "delete course", struct{}{}, err, "Course deleted")
}

// ListClasses lists the scheduled classes of a course
func (a *Actions) ListClasses(ctx context.Context, courseID string) result.Result[[]domain.Class] {
	var classes []domain.Class
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "list classes", classes, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Get(ctx, "/courses/"+seg(courseID)+"/classes", nil, &classes)
	})
	return finish(a, "list classes", classes, err, "")
}

// ListSyllabus lists the syllabus items of a course in order
func (a *Actions) ListSyllabus(ctx context.Context, courseID string) result.Result[[]domain.SyllabusItem] {
	var items []domain.SyllabusItem
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "list syllabus", items, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Get(ctx, "/courses/"+seg(courseID)+"/syllabus", nil, &items)
	})
	return finish(a, "list syllabus", items, err, "")
}

// GetSyllabusItem fetches one syllabus item with its content
func (a *Actions) GetSyllabusItem(ctx context.Context, courseID, itemID string) result.Result[domain.SyllabusItem] {
	var item domain.SyllabusItem
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "get syllabus item", item, err, "")
	}
	if err := requireID("itemId", itemID); err != nil {
		return finish(a, "get syllabus item", item, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Get(ctx, "/courses/"+seg(courseID)+"/syllabus/"+seg(itemID), nil, &item)
	})
	return finish(a, "get syllabus item", item, err, "")
}

// CompleteSyllabusItem marks an item done and records the new progress locally
func (a *Actions) CompleteSyllabusItem(ctx context.Context, courseID, itemID string) result.Result[domain.CourseProgress] {
	var progress domain.CourseProgress
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "complete syllabus item", progress, err, "")
	}
	if err := requireID("itemId", itemID); err != nil {
		return finish(a, "complete syllabus item", progress, err, "")
	}

	ticket := a.stores.Progress.Begin()
	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Post(ctx, "/courses/"+seg(courseID)+"/syllabus/"+seg(itemID)+"/complete", nil, &progress)
	})
	if err != nil {
		return finish(a, "complete syllabus item", progress, err, "")
	}

	if progress.CourseID == "" {
		progress.CourseID = courseID
	}
	if _, err := a.stores.Progress.Apply(ticket, progress); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist progress")
	}
	return finish(a, "complete syllabus item", progress, nil, "Lesson completed")
}

// RateCourse posts the user's rating for a course
func (a *Actions) RateCourse(ctx context.Context, courseID string, input domain.RatingInput) result.Result[domain.Rating] {
	var rating domain.Rating
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "rate course", rating, err, "")
	}
	if err := a.check(input); err != nil {
		return finish(a, "rate course", rating, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Post(ctx, "/courses/"+seg(courseID)+"/ratings", input, &rating)
	})
	return finish(a, "rate course", rating, err, "Thanks for your rating")
}

// ListRatings lists the ratings of a course
func (a *Actions) ListRatings(ctx context.Context, courseID string) result.Result[[]domain.Rating] {
	var ratings []domain.Rating
	if err := requireID("courseId", courseID); err != nil {
		return finish(a, "list ratings", ratings, err, "")
	}

	err := a.do(ctx, apiclient.ServiceCourses, func(c *apiclient.Client) error {
		return c.Get(ctx, "/courses/"+seg(courseID)+"/ratings", nil, &ratings)
	})
	return finish(a, "list ratings", ratings, err, "")
}
