package devgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub-dev/coursehub/internal/chat"
	"github.com/coursehub-dev/coursehub/internal/config"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/session"
)

// newTestServer starts a gateway on a private in-memory database
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := New(config.DevGatewayConfig{
		DatabaseURL: "file:" + ulid.Make().String() + "?mode=memory&cache=shared",
		JWTSecret:   "test-secret",
		AccessTTL:   time.Minute,
	}, zerolog.Nop(), "test")
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

// call sends a JSON request and decodes the JSON response into out
func call(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func login(t *testing.T, ts *httptest.Server, email string) session.ExternalSession {
	t.Helper()
	var sess session.ExternalSession
	status := call(t, ts, http.MethodPost, "/auth-service/auth/login", "",
		domain.Credentials{Email: email, Password: DemoPassword}, &sess)
	require.Equal(t, http.StatusOK, status)
	return sess
}

func courseByTitle(t *testing.T, ts *httptest.Server, title string) domain.Course {
	t.Helper()
	var page domain.Page[domain.Course]
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/course-service/courses", "", nil, &page))
	for _, course := range page.Items {
		if course.Title == title {
			return course
		}
	}
	t.Fatalf("course %q not seeded", title)
	return domain.Course{}
}

func TestLogin_AndMe(t *testing.T) {
	_, ts := newTestServer(t)

	sess := login(t, ts, DemoEmail)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, "Ada Lovelace", sess.User.Name)

	var me session.ExternalUser
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/auth-service/auth/me", sess.AccessToken, nil, &me))
	assert.Equal(t, sess.User.ID, me.ID)

	var errBody map[string]string
	status := call(t, ts, http.MethodPost, "/auth-service/auth/login", "",
		domain.Credentials{Email: DemoEmail, Password: "nope"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", errBody["message"])
}

func TestAuth_RejectsMissingAndMismatchedTokens(t *testing.T) {
	_, ts := newTestServer(t)
	sess := login(t, ts, DemoEmail)

	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodGet, "/auth-service/auth/me", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodGet, "/auth-service/auth/me", "garbage", nil, nil))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth-service/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	req.Header.Set("X-User-Id", "someone-else")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefresh_RotatesToken(t *testing.T) {
	_, ts := newTestServer(t)
	sess := login(t, ts, DemoEmail)

	var pair domain.TokenPair
	body := map[string]string{"refreshToken": sess.RefreshToken}
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/auth-service/auth/refresh", "", body, &pair))
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, sess.RefreshToken, pair.RefreshToken)

	// The presented refresh token is single use
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodPost, "/auth-service/auth/refresh", "", body, nil))

	// Logout revokes the new one
	logoutBody := map[string]string{"refreshToken": pair.RefreshToken}
	assert.Equal(t, http.StatusNoContent, call(t, ts, http.MethodPost, "/auth-service/auth/logout", "", logoutBody, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, ts, http.MethodPost, "/auth-service/auth/refresh", "", logoutBody, nil))
}

func TestCourses_ListFilterAndInstructorOnly(t *testing.T) {
	_, ts := newTestServer(t)

	var page domain.Page[domain.Course]
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/course-service/courses?category=systems", "", nil, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Distributed Systems", page.Items[0].Title)
	assert.Equal(t, 1, page.Total)

	input := domain.CourseInput{Title: "Rust for Gophers", Currency: "USD", Price: 1000}

	student := login(t, ts, DemoEmail)
	assert.Equal(t, http.StatusForbidden, call(t, ts, http.MethodPost, "/course-service/courses", student.AccessToken, input, nil))

	instructor := login(t, ts, DemoInstructorEmail)
	var created domain.Course
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/course-service/courses", instructor.AccessToken, input, &created))
	assert.Equal(t, instructor.User.ID, created.InstructorID)

	input.Title = "Rust for Gophers, 2nd edition"
	var updated domain.Course
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPatch, "/course-service/courses/"+created.ID, instructor.AccessToken, input, &updated))
	assert.Equal(t, input.Title, updated.Title)

	require.Equal(t, http.StatusNoContent, call(t, ts, http.MethodDelete, "/course-service/courses/"+created.ID, instructor.AccessToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/course-service/courses/"+created.ID, "", nil, nil))
}

func TestLearningFlow_EnrollCompleteAndRate(t *testing.T) {
	_, ts := newTestServer(t)
	sess := login(t, ts, DemoEmail)
	course := courseByTitle(t, ts, "Go Fundamentals")

	var items []domain.SyllabusItem
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/course-service/courses/"+course.ID+"/syllabus", sess.AccessToken, nil, &items))
	require.Len(t, items, 3)
	assert.Empty(t, items[0].Content)

	itemPath := "/course-service/courses/" + course.ID + "/syllabus/" + items[0].ID
	assert.Equal(t, http.StatusForbidden, call(t, ts, http.MethodGet, itemPath, sess.AccessToken, nil, nil))

	var enrollment domain.Enrollment
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/enrollment-service/enrollments", sess.AccessToken,
		domain.EnrollmentInput{CourseID: course.ID}, &enrollment))
	assert.Equal(t, domain.EnrollmentActive, enrollment.Status)
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, "/enrollment-service/enrollments", sess.AccessToken,
		domain.EnrollmentInput{CourseID: course.ID}, nil))

	var item domain.SyllabusItem
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, itemPath, sess.AccessToken, nil, &item))
	assert.NotEmpty(t, item.Content)

	var progress domain.CourseProgress
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, itemPath+"/complete", sess.AccessToken, nil, &progress))
	assert.Equal(t, []string{items[0].ID}, progress.CompletedItems)
	assert.InDelta(t, 33.3, progress.Percent, 0.01)

	// Completing twice is a no-op
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, itemPath+"/complete", sess.AccessToken, nil, &progress))
	assert.Len(t, progress.CompletedItems, 1)

	var rating domain.Rating
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/course-service/courses/"+course.ID+"/ratings", sess.AccessToken,
		domain.RatingInput{Score: 4}, &rating))
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/course-service/courses/"+course.ID+"/ratings", sess.AccessToken,
		domain.RatingInput{Score: 5, Comment: "Great"}, &rating))
	assert.Equal(t, 5, rating.Score)

	var rated domain.Course
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/course-service/courses/"+course.ID, "", nil, &rated))
	assert.Equal(t, 1, rated.RatingCount)
	assert.Equal(t, 5.0, rated.Rating)
}

func TestPayment_ActivatesPaidEnrollment(t *testing.T) {
	_, ts := newTestServer(t)
	sess := login(t, ts, DemoEmail)
	course := courseByTitle(t, ts, "Distributed Systems")

	var enrollment domain.Enrollment
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/enrollment-service/enrollments", sess.AccessToken,
		domain.EnrollmentInput{CourseID: course.ID}, &enrollment))
	assert.Equal(t, domain.EnrollmentPending, enrollment.Status)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, "/payment-service/payments", sess.AccessToken,
		map[string]string{"enrollmentId": enrollment.ID, "method": "cash"}, &errBody))

	var payment domain.Payment
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/payment-service/payments", sess.AccessToken,
		domain.PaymentInput{EnrollmentID: enrollment.ID, Method: "card"}, &payment))
	assert.Equal(t, domain.PaymentSucceeded, payment.Status)
	assert.Equal(t, int64(4900), payment.Amount)

	var enrollments []domain.Enrollment
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/enrollment-service/enrollments/me", sess.AccessToken, nil, &enrollments))
	require.Len(t, enrollments, 1)
	assert.Equal(t, domain.EnrollmentActive, enrollments[0].Status)
	assert.Equal(t, payment.ID, enrollments[0].PaymentID)

	var fetched domain.Payment
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/payment-service/payments/"+payment.ID, sess.AccessToken, nil, &fetched))
	assert.Equal(t, payment.ID, fetched.ID)

	var cancelled domain.Enrollment
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/enrollment-service/enrollments/"+enrollment.ID+"/cancel", sess.AccessToken, nil, &cancelled))
	assert.Equal(t, domain.EnrollmentCancelled, cancelled.Status)
}

func TestAssessment_GradesSubmission(t *testing.T) {
	srv, ts := newTestServer(t)
	sess := login(t, ts, DemoEmail)

	var seeded Test
	require.NoError(t, srv.DB().First(&seeded).Error)

	var test domain.Test
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/assessment-service/tests/"+seeded.ID, sess.AccessToken, nil, &test))
	require.Len(t, test.Questions, 2)
	assert.Equal(t, []string{"go", "async", "spawn"}, test.Questions[0].Options)

	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/assessment-service/tests/"+seeded.ID+"/result", sess.AccessToken, nil, nil))

	var graded domain.TestResult
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/assessment-service/tests/"+seeded.ID+"/submissions", sess.AccessToken,
		domain.Submission{Answers: []domain.Answer{
			{QuestionID: test.Questions[0].ID, OptionIndex: 0},
			{QuestionID: test.Questions[1].ID, OptionIndex: 0},
		}}, &graded))
	assert.Equal(t, 1, graded.Score)
	assert.Equal(t, 2, graded.MaxScore)
	assert.True(t, graded.Passed)

	var latest domain.TestResult
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/assessment-service/tests/"+seeded.ID+"/result", sess.AccessToken, nil, &latest))
	assert.Equal(t, graded.ID, latest.ID)
}

func TestNotifications_MarkRead(t *testing.T) {
	_, ts := newTestServer(t)
	sess := login(t, ts, DemoEmail)

	var list []domain.Notification
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/notification-service/notifications", sess.AccessToken, nil, &list))
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)

	assert.Equal(t, http.StatusNoContent, call(t, ts, http.MethodPatch, "/notification-service/notifications/"+list[0].ID+"/read", sess.AccessToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodPatch, "/notification-service/notifications/missing/read", sess.AccessToken, nil, nil))
	assert.Equal(t, http.StatusNoContent, call(t, ts, http.MethodPatch, "/notification-service/notifications/read-all", sess.AccessToken, nil, nil))

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/notification-service/notifications", sess.AccessToken, nil, &list))
	assert.True(t, list[0].Read)
}

func TestChatHub_BroadcastsToRoom(t *testing.T) {
	srv, ts := newTestServer(t)
	student := login(t, ts, DemoEmail)
	instructor := login(t, ts, DemoInstructorEmail)

	var class Class
	require.NoError(t, srv.DB().First(&class).Error)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := chat.Config{GatewayURL: ts.URL, HandshakeTimeout: 2 * time.Second}

	a, err := chat.Dial(ctx, cfg, student.AccessToken, class.ID, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	waitFor(t, a, chat.EventUserJoined)

	b, err := chat.Dial(ctx, cfg, instructor.AccessToken, class.ID, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()
	waitFor(t, b, chat.EventUserJoined)

	require.NoError(t, a.Send("Is the Q&A recorded?"))

	msg, err := waitFor(t, b, chat.EventNewMessage).Message()
	require.NoError(t, err)
	assert.Equal(t, "Is the Q&A recorded?", msg.Text)
	assert.Equal(t, "Ada Lovelace", msg.SenderName)

	// REST history includes socket messages
	var history []domain.Message
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/discussion-service/classes/"+class.ID+"/messages", student.AccessToken, nil, &history))
	require.Len(t, history, 1)

	var report domain.Report
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/discussion-service/messages/"+msg.ID+"/reports", instructor.AccessToken,
		domain.ReportInput{Reason: "off topic"}, &report))
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, "/discussion-service/messages/"+msg.ID+"/reports", instructor.AccessToken,
		domain.ReportInput{Reason: "off topic"}, nil))

	require.NoError(t, b.Close())
	presence, err := waitFor(t, a, chat.EventUserLeft).Presence()
	require.NoError(t, err)
	assert.Equal(t, instructor.User.ID, presence.UserID)
}

func TestChatHub_RejectsUnauthenticated(t *testing.T) {
	_, ts := newTestServer(t)

	_, err := chat.Dial(context.Background(), chat.Config{GatewayURL: ts.URL}, "", "class-1", zerolog.Nop())
	require.Error(t, err)
}

// waitFor skips events until one with the given name arrives
func waitFor(t *testing.T, c *chat.Conn, name string) chat.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-c.Events():
			require.True(t, ok, "connection closed while waiting for %s", name)
			if e.Name == name {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

func TestUpload_AndDownload(t *testing.T) {
	_, ts := newTestServer(t)
	sess := login(t, ts, DemoEmail)

	var buf bytes.Buffer
	contentType := newMultipart(&buf, "notes.txt", "hello world", "avatars")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/storage-service/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var info domain.FileInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "notes.txt", info.Name)
	assert.Equal(t, int64(11), info.Size)

	req, err = http.NewRequest(http.MethodGet, ts.URL+info.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	resp2, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	data, _ := io.ReadAll(resp2.Body)
	assert.Equal(t, "hello world", string(data))
}

// newMultipart writes a single-file form and returns its content type
func newMultipart(buf *bytes.Buffer, name, content, folder string) string {
	w := multipart.NewWriter(buf)
	w.WriteField("folder", folder)
	part, _ := w.CreateFormFile("file", name)
	part.Write([]byte(content))
	w.Close()
	return w.FormDataContentType()
}
