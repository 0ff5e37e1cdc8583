package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliconfig "github.com/coursehub-dev/coursehub/internal/cli/config"
	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
	"github.com/coursehub-dev/coursehub/internal/config"
	"github.com/coursehub-dev/coursehub/internal/devgateway"
	"github.com/coursehub-dev/coursehub/internal/domain"
)

// newTestApp wires an App to a dev gateway on a private in-memory database
func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()

	srv, err := devgateway.New(config.DevGatewayConfig{
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

	cfg := &config.Config{
		Gateway: config.GatewayConfig{
			URL:        ts.URL,
			Timeout:    5 * time.Second,
			AuthPolicy: config.AuthPolicyBestEffort,
		},
		Storage: config.StorageConfig{Backend: config.StorageMemory},
	}

	var out bytes.Buffer
	app, err := newApp(cfg, ts.URL, &out, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	return app, &out
}

func loginAs(t *testing.T, app *App, out *bytes.Buffer, email string) {
	t.Helper()
	require.NoError(t, runLogin(context.Background(), app, email, devgateway.DemoPassword))
	out.Reset()
}

func findCourse(t *testing.T, app *App, title string) domain.Course {
	t.Helper()
	res := app.Actions.ListCourses(context.Background(), domain.CourseQuery{Search: title})
	require.True(t, res.Success, res.Message)
	for _, course := range res.Data.Items {
		if course.Title == title {
			return course
		}
	}
	t.Fatalf("course %q not found", title)
	return domain.Course{}
}

func enrollIn(t *testing.T, app *App, out *bytes.Buffer, courseID string) {
	t.Helper()
	require.NoError(t, runEnroll(context.Background(), app, []string{courseID}))
	out.Reset()
}

func TestLogin_WhoamiAndLogout(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, runLogin(ctx, app, " demo@coursehub.dev ", devgateway.DemoPassword))
	assert.Contains(t, out.String(), "✓ Login successful!")
	assert.Contains(t, out.String(), "Ada Lovelace")

	out.Reset()
	require.NoError(t, runWhoami(ctx, app, nil))
	assert.Contains(t, out.String(), "demo@coursehub.dev")
	assert.Contains(t, out.String(), "Role:    student")

	require.NoError(t, runLogout(ctx, app, nil))
	assert.False(t, app.Actions.Session().Current().IsAuthenticated())

	err := runWhoami(ctx, app, nil)
	assert.EqualError(t, err, "not logged in. Run 'coursehub login' first")
}

func TestLogin_BadPassword(t *testing.T) {
	app, _ := newTestApp(t)

	err := runLogin(context.Background(), app, devgateway.DemoEmail, "wrong")
	require.Error(t, err)
	assert.Equal(t, "login failed: Invalid email or password.", err.Error())
	assert.False(t, app.Actions.Session().Current().IsAuthenticated())
}

func TestCoursesList_FiltersByCategory(t *testing.T) {
	app, out := newTestApp(t)

	require.NoError(t, runCoursesList(context.Background(), app, domain.CourseQuery{Category: "systems"}))
	assert.Contains(t, out.String(), "Distributed Systems")
	assert.Contains(t, out.String(), "49.00 USD")
	assert.NotContains(t, out.String(), "Go Fundamentals")

	out.Reset()
	require.NoError(t, runCoursesList(context.Background(), app, domain.CourseQuery{Search: "no such course"}))
	assert.Equal(t, "No courses found.\n", out.String())
}

func TestCourseShow_NotFound(t *testing.T) {
	app, _ := newTestApp(t)

	err := runCourseShow(context.Background(), app, []string{"missing"})
	assert.Error(t, err)
}

func TestLearningFlow_EnrollCompleteAndRate(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	loginAs(t, app, out, devgateway.DemoEmail)

	course := findCourse(t, app, "Go Fundamentals")

	require.NoError(t, runEnroll(ctx, app, []string{course.ID}))
	assert.Contains(t, out.String(), "is active")

	out.Reset()
	require.NoError(t, runSyllabusList(ctx, app, []string{course.ID}))
	assert.Contains(t, out.String(), "Hello, Go")
	assert.Contains(t, out.String(), "Progress: 0.0%")

	syllabus := app.Actions.ListSyllabus(ctx, course.ID)
	require.True(t, syllabus.Success, syllabus.Message)

	out.Reset()
	require.NoError(t, runSyllabusShow(ctx, app, []string{course.ID, syllabus.Data[0].ID}))
	assert.Contains(t, out.String(), "1. Hello, Go [lesson]")

	out.Reset()
	require.NoError(t, runSyllabusComplete(ctx, app, []string{course.ID, syllabus.Data[0].ID}))
	assert.Contains(t, out.String(), "Course progress: 33.3%")
	assert.True(t, app.Actions.Stores().Progress.IsCompleted(course.ID, syllabus.Data[0].ID))

	out.Reset()
	require.NoError(t, runSyllabusList(ctx, app, []string{course.ID}))
	assert.Contains(t, out.String(), "✓")
	assert.Contains(t, out.String(), "Progress: 33.3%")

	out.Reset()
	require.NoError(t, runRate(ctx, app, course.ID, domain.RatingInput{Score: 5, Comment: "Clear and practical"}))
	assert.Contains(t, out.String(), "✓ Rated 5/5")

	out.Reset()
	require.NoError(t, runCourseRatings(ctx, app, []string{course.ID}))
	assert.Contains(t, out.String(), "Clear and practical")

	out.Reset()
	require.NoError(t, runCourseClasses(ctx, app, []string{course.ID}))
	assert.Contains(t, out.String(), "Live Q&A")
}

func TestRate_RejectsOutOfRangeScore(t *testing.T) {
	app, out := newTestApp(t)
	loginAs(t, app, out, devgateway.DemoEmail)

	course := findCourse(t, app, "Go Fundamentals")

	err := runRate(context.Background(), app, course.ID, domain.RatingInput{Score: 9})
	assert.EqualError(t, err, "score must be less than or equal to 5")
}

func TestPayFlow_ActivatesEnrollment(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	loginAs(t, app, out, devgateway.DemoEmail)

	course := findCourse(t, app, "Distributed Systems")

	require.NoError(t, runEnroll(ctx, app, []string{course.ID}))
	assert.Contains(t, out.String(), "is pending")
	assert.Contains(t, out.String(), "coursehub pay")

	enrollments := app.Actions.ListEnrollments(ctx)
	require.True(t, enrollments.Success, enrollments.Message)
	require.Len(t, enrollments.Data, 1)

	err := runPay(ctx, app, domain.PaymentInput{EnrollmentID: enrollments.Data[0].ID, Method: "cash"})
	assert.EqualError(t, err, "method must be one of: card wallet bank_transfer")

	out.Reset()
	require.NoError(t, runPay(ctx, app, domain.PaymentInput{EnrollmentID: enrollments.Data[0].ID, Method: "card"}))
	assert.Contains(t, out.String(), "49.00 USD succeeded")

	out.Reset()
	require.NoError(t, runPayments(ctx, app, nil))
	assert.Contains(t, out.String(), enrollments.Data[0].ID)
	assert.Contains(t, out.String(), "card")

	out.Reset()
	require.NoError(t, runEnrollmentsList(ctx, app, nil))
	assert.Contains(t, out.String(), "active")

	out.Reset()
	require.NoError(t, runEnrollmentCancel(ctx, app, []string{enrollments.Data[0].ID}))
	assert.Contains(t, out.String(), "is cancelled")
}

func TestSubmitTest_GradesFixedAnswers(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	loginAs(t, app, out, devgateway.DemoEmail)

	course := findCourse(t, app, "Go Fundamentals")
	enrollIn(t, app, out, course.ID)

	syllabus := app.Actions.ListSyllabus(ctx, course.ID)
	require.True(t, syllabus.Success, syllabus.Message)

	var testID string
	for _, item := range syllabus.Data {
		if item.TestID != "" {
			testID = item.TestID
		}
	}
	require.NotEmpty(t, testID)

	err := runTestResult(ctx, app, []string{testID})
	assert.Error(t, err)

	answers, err := parseAnswers([]string{"1", " 2"})
	require.NoError(t, err)

	require.NoError(t, runSubmitTest(ctx, app, testID, fixedAnswers(answers)))
	assert.Contains(t, out.String(), "Fundamentals quiz (2 questions, 15 min)")
	assert.Contains(t, out.String(), "✓ Passed: 2/2")

	out.Reset()
	require.NoError(t, runTestResult(ctx, app, []string{testID}))
	assert.Contains(t, out.String(), "✓ Passed: 2/2")

	err = runSubmitTest(ctx, app, testID, fixedAnswers([]int{0}))
	assert.EqualError(t, err, "no answer given for question 2")

	err = runSubmitTest(ctx, app, testID, fixedAnswers([]int{3, 0}))
	assert.EqualError(t, err, "question 1 has 3 options, got 4")
}

func TestParseAnswers_RejectsInvalid(t *testing.T) {
	for _, raw := range []string{"0", "-1", "b"} {
		_, err := parseAnswers([]string{raw})
		assert.Error(t, err, raw)
	}
}

func TestCheckIn_RequiresActiveEnrollment(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	loginAs(t, app, out, devgateway.DemoEmail)

	course := findCourse(t, app, "Go Fundamentals")
	classes := app.Actions.ListClasses(ctx, course.ID)
	require.True(t, classes.Success, classes.Message)
	require.NotEmpty(t, classes.Data)
	classID := classes.Data[0].ID

	assert.Error(t, runCheckIn(ctx, app, []string{classID}))

	enrollIn(t, app, out, course.ID)

	require.NoError(t, runCheckIn(ctx, app, []string{classID}))
	assert.Contains(t, out.String(), "✓ Checked in")

	me := app.Actions.Session().Current().User
	require.NotNil(t, me)

	out.Reset()
	require.NoError(t, runAttendance(ctx, app, []string{classID}))
	assert.Contains(t, out.String(), me.ID)
}

func TestNotifications_ListReadAndWatch(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	loginAs(t, app, out, devgateway.DemoEmail)

	require.NoError(t, runNotificationsList(ctx, app, nil))
	assert.Contains(t, out.String(), "Welcome to CourseHub")
	assert.Contains(t, out.String(), "1 unread")

	watcher := newNotificationWatcher(app)
	fresh, err := watcher.poll(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	fresh, err = watcher.poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	assert.EqualError(t, runNotificationsRead(ctx, app, "", false), "pass a notification id or --all")

	out.Reset()
	require.NoError(t, runNotificationsRead(ctx, app, "", true))
	assert.Contains(t, out.String(), "All notifications marked as read")
	assert.Equal(t, 0, app.Actions.Stores().Notifications.UnreadCount())

	out.Reset()
	require.NoError(t, runNotificationsList(ctx, app, nil))
	assert.Contains(t, out.String(), "0 unread")
}

func TestNotificationsWatch_StopsOnCancel(t *testing.T) {
	app, out := newTestApp(t)
	loginAs(t, app, out, devgateway.DemoEmail)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, runNotificationsWatch(ctx, app, "@every 1h"))
	assert.Contains(t, out.String(), "● Welcome to CourseHub")
	assert.Contains(t, out.String(), "Watching for notifications (@every 1h)")

	err := runNotificationsWatch(context.Background(), app, "whenever")
	assert.ErrorContains(t, err, "invalid schedule 'whenever'")
}

func TestChat_SendsStdinLines(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	loginAs(t, app, out, devgateway.DemoEmail)

	course := findCourse(t, app, "Go Fundamentals")
	classes := app.Actions.ListClasses(ctx, course.ID)
	require.True(t, classes.Success, classes.Message)
	classID := classes.Data[0].ID

	require.NoError(t, runChat(ctx, app, classID, strings.NewReader("\nhello class\n")))
	assert.Contains(t, out.String(), "Joined class "+classID)

	var messageID string
	assert.Eventually(t, func() bool {
		res := app.Actions.ListMessages(ctx, classID)
		for _, msg := range res.Data {
			if msg.Text == "hello class" {
				messageID = msg.ID
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
	require.NotEmpty(t, messageID)

	out.Reset()
	require.NoError(t, runMessages(ctx, app, classID))
	assert.Contains(t, out.String(), "hello class")
	assert.Contains(t, out.String(), "Ada Lovelace")

	out.Reset()
	require.NoError(t, runSendMessage(ctx, app, classID, "over REST"))
	assert.Contains(t, out.String(), "✓ Sent message")

	require.NoError(t, runReport(ctx, app, messageID, "spam"))
	err := runReport(ctx, app, messageID, "spam")
	assert.EqualError(t, err, "You have already reported this message.")
}

func TestUpload_SendsFile(t *testing.T) {
	app, out := newTestApp(t)
	loginAs(t, app, out, devgateway.DemoEmail)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	require.NoError(t, runUpload(context.Background(), app, path, "homework"))
	assert.Contains(t, out.String(), "✓ Uploaded notes.txt (5 bytes)")
	assert.Contains(t, out.String(), "/storage-service/files/")

	err := runUpload(context.Background(), app, filepath.Join(t.TempDir(), "missing.txt"), "")
	assert.ErrorContains(t, err, "failed to open")
}

func TestInstructorCourseLifecycle(t *testing.T) {
	app, out := newTestApp(t)
	ctx := context.Background()
	loginAs(t, app, out, devgateway.DemoInstructorEmail)

	input := domain.CourseInput{Title: "Testing in Go", Description: "Table tests", Price: 0, Currency: "USD"}
	require.NoError(t, runCourseCreate(ctx, app, input))
	assert.Contains(t, out.String(), "✓ Created course Testing in Go")

	course := findCourse(t, app, "Testing in Go")

	input.Title = "Testing in Go, 2nd edition"
	out.Reset()
	require.NoError(t, runCourseUpdate(ctx, app, course.ID, input))
	assert.Contains(t, out.String(), "✓ Updated course Testing in Go, 2nd edition")

	out.Reset()
	require.NoError(t, runCourseDelete(ctx, app, []string{course.ID}))
	assert.Contains(t, out.String(), "✓ Deleted course "+course.ID)

	assert.Error(t, runCourseShow(ctx, app, []string{course.ID}))
}

func TestCourseCreate_StudentForbidden(t *testing.T) {
	app, out := newTestApp(t)
	loginAs(t, app, out, devgateway.DemoEmail)

	err := runCourseCreate(context.Background(), app, domain.CourseInput{Title: "Nope", Currency: "USD"})
	assert.Error(t, err)
}

func TestInit_CreatesAndExtendsConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, runInit(&out, dir, "http://localhost:8080/", ""))
	assert.Contains(t, out.String(), "✓ Created ./coursehub.yaml")

	require.NoError(t, runInit(&out, dir, "https://api.coursehub.io", ""))
	require.NoError(t, runInit(&out, dir, "http://localhost:8080", ""))
	assert.Contains(t, out.String(), "already exists")

	cfg, err := cliconfig.Load(filepath.Join(dir, cliconfig.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, []cliconfig.Gateway{
		{Alias: "production", URL: "http://localhost:8080"},
		{Alias: "gateway-2", URL: "https://api.coursehub.io"},
	}, cfg.Gateways)

	assert.ErrorContains(t, runInit(&out, dir, "localhost:9000", ""), "invalid gateway URL")
	assert.ErrorContains(t, runInit(&out, dir, "http://other:9000", "production"), "alias 'production' is already used")
}

func TestSelectGateway_PersistsChoice(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	var out bytes.Buffer
	require.NoError(t, runInit(&out, dir, "http://localhost:8080", "local"))
	require.NoError(t, runInit(&out, dir, "https://api.coursehub.io", "production"))

	out.Reset()
	require.NoError(t, runSelectGateway(&out, "production"))
	assert.Equal(t, "Selected gateway: production (https://api.coursehub.io)\n", out.String())

	cwd, err := os.Getwd()
	require.NoError(t, err)
	selections, err := userconfig.DefaultStore()
	require.NoError(t, err)
	selected, err := selections.Selected(filepath.Join(cwd, cliconfig.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "https://api.coursehub.io", selected)

	url, err := resolveGatewayURL(&config.Config{}, "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.coursehub.io", url)

	url, err = resolveGatewayURL(&config.Config{}, "local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", url)

	assert.Error(t, runSelectGateway(&out, "staging"))
}

func TestResolveGatewayURL_FallsBackToEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg := &config.Config{Gateway: config.GatewayConfig{URL: "http://env-gateway:8080"}}

	url, err := resolveGatewayURL(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "http://env-gateway:8080", url)

	url, err = resolveGatewayURL(cfg, "https://staging.coursehub.io/")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.coursehub.io", url)

	_, err = resolveGatewayURL(cfg, "production")
	assert.ErrorContains(t, err, "Run 'coursehub init'")
}
