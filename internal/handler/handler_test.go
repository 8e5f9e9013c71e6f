package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/pavelanni/examsys/internal/i18n"
	"github.com/pavelanni/examsys/internal/llm"
	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

const testPassword = "secret-pass"

type fakeAdvisor struct {
	advice string
	err    error
	calls  int
}

func (f *fakeAdvisor) Advise(_ context.Context, req llm.AdviceRequest) (string, error) {
	f.calls++
	return f.advice, f.err
}

type testEnv struct {
	t            *testing.T
	store        *store.Store
	srv          *httptest.Server
	advisor      *fakeAdvisor
	studentID    int64
	instructorID int64
	courseID     int64
	examID       int64
	mcqID        int64
	rightChoice  int64
	wrongChoice  int64
	essayID      int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	ctx := context.Background()
	s, err := store.New(ctx, store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	env := &testEnv{t: t, store: s, advisor: &fakeAdvisor{advice: "Review chapter 3 twice."}}
	env.studentID = env.person("student@example.com", model.RoleStudent)
	env.instructorID = env.person("instructor@example.com", model.RoleInstructor)
	env.person("manager@example.com", model.RoleManager)

	env.courseID, err = s.CreateCourse(ctx, "Databases", 45, "Data", "Computer Science")
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if err := s.AssignCourse(ctx, env.instructorID, env.courseID); err != nil {
		t.Fatalf("AssignCourse: %v", err)
	}
	env.examID, err = s.CreateExam(ctx, model.Exam{
		CourseID: env.courseID, InstructorID: env.instructorID,
		Semester: "Fall", Year: 2024, TotalMarks: 100,
	})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	env.mcqID = env.question(model.QuestionMultipleChoice, "Which SQL keyword removes rows?", 90, 1)
	env.rightChoice = env.choice(env.mcqID, "DELETE", true)
	env.wrongChoice = env.choice(env.mcqID, "DROP", false)
	env.essayID = env.question(model.QuestionEssay, "Explain normalization.", 10, 2)

	h := New(s, env.advisor, model.AppConfig{Lang: "en"})
	r := chi.NewRouter()
	r.Use(appI18n.Middleware(false))
	h.Routes(r)
	env.srv = httptest.NewServer(r)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) person(email string, role model.Role) int64 {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("bcrypt: %v", err)
	}
	_, profileID, err := e.store.CreatePerson(context.Background(), model.Person{
		FirstName: "Test", LastName: string(role), Email: email, PasswordHash: string(hash), Role: role,
	})
	if err != nil {
		e.t.Fatalf("CreatePerson: %v", err)
	}
	return profileID
}

func (e *testEnv) question(typ model.QuestionType, text string, marks float64, pos int) int64 {
	e.t.Helper()
	ctx := context.Background()
	id, err := e.store.CreateQuestion(ctx, model.Question{Type: typ, Text: text})
	if err != nil {
		e.t.Fatalf("CreateQuestion: %v", err)
	}
	if err := e.store.LinkQuestion(ctx, model.ExamQuestion{ExamID: e.examID, QuestionID: id, Marks: marks, Position: pos}); err != nil {
		e.t.Fatalf("LinkQuestion: %v", err)
	}
	return id
}

func (e *testEnv) choice(questionID int64, text string, correct bool) int64 {
	e.t.Helper()
	id, err := e.store.CreateChoice(context.Background(), model.Choice{QuestionID: questionID, Text: text, Correct: correct})
	if err != nil {
		e.t.Fatalf("CreateChoice: %v", err)
	}
	return id
}

// client is a browser stand-in: it keeps cookies and does not follow redirects.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (e *testEnv) client() *client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		e.t.Fatalf("cookiejar: %v", err)
	}
	return &client{
		t:    e.t,
		base: e.srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) csrf() string {
	u, _ := url.Parse(c.base)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == csrfCookieName {
			return ck.Value
		}
	}
	return ""
}

func (c *client) get(path string) (int, string, string) {
	c.t.Helper()
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		c.t.Fatalf("GET %s: %v", path, err)
	}
	return read(c.t, resp)
}

func (c *client) post(path string, form url.Values) (int, string, string) {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf_token") == "" {
		form.Set("csrf_token", c.csrf())
	}
	resp, err := c.http.PostForm(c.base+path, form)
	if err != nil {
		c.t.Fatalf("POST %s: %v", path, err)
	}
	return read(c.t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (c *client) login(email string) {
	c.t.Helper()
	c.get("/auth/login")
	code, loc, _ := c.post("/auth/login", url.Values{"email": {email}, "password": {testPassword}})
	if code != http.StatusSeeOther {
		c.t.Fatalf("login %s: status %d, want 303", email, code)
	}
	if loc == "/auth/login" {
		c.t.Fatalf("login %s: redirected back to login", email)
	}
}

func TestIndexRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	code, loc, _ := env.client().get("/")
	if code != http.StatusSeeOther || loc != "/auth/login" {
		t.Errorf("GET / = %d %q, want 303 /auth/login", code, loc)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantCode int
		wantLoc  string
	}{
		{"student", "student@example.com", testPassword, http.StatusSeeOther, "/student/dashboard"},
		{"instructor", "INSTRUCTOR@example.com", testPassword, http.StatusSeeOther, "/instructor/dashboard"},
		{"manager", "manager@example.com", testPassword, http.StatusSeeOther, "/manager/dashboard"},
		{"wrong password", "student@example.com", "nope-nope", http.StatusUnauthorized, ""},
		{"unknown email", "ghost@example.com", testPassword, http.StatusUnauthorized, ""},
		{"malformed email", "not-an-email", testPassword, http.StatusUnauthorized, ""},
	}
	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := env.client()
			c.get("/auth/login")
			code, loc, body := c.post("/auth/login", url.Values{"email": {tt.email}, "password": {tt.password}})
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d", code, tt.wantCode)
			}
			if loc != tt.wantLoc {
				t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
			}
			if tt.wantCode == http.StatusUnauthorized && !strings.Contains(body, "Invalid email or password.") {
				t.Errorf("body does not contain the login error")
			}
		})
	}
}

func TestCSRFRequired(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.get("/auth/login")
	code, _, _ := c.post("/auth/login", url.Values{
		"email": {"student@example.com"}, "password": {testPassword}, "csrf_token": {"forged"},
	})
	if code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestRoleGuard(t *testing.T) {
	env := newTestEnv(t)

	t.Run("anonymous", func(t *testing.T) {
		c := env.client()
		code, loc, _ := c.get("/student/dashboard")
		if code != http.StatusSeeOther || loc != "/auth/login" {
			t.Fatalf("GET /student/dashboard = %d %q, want 303 /auth/login", code, loc)
		}
		_, _, body := c.get("/auth/login")
		if !strings.Contains(body, "Please sign in first.") {
			t.Errorf("login page does not show the sign-in flash")
		}
	})

	t.Run("wrong role", func(t *testing.T) {
		c := env.client()
		c.login("student@example.com")
		code, loc, _ := c.get("/manager/dashboard")
		if code != http.StatusSeeOther || loc != "/auth/login" {
			t.Fatalf("GET /manager/dashboard = %d %q, want 303 /auth/login", code, loc)
		}
		code, loc, _ = c.get("/auth/login")
		if code != http.StatusSeeOther || loc != "/student/dashboard" {
			t.Fatalf("GET /auth/login = %d %q, want 303 /student/dashboard", code, loc)
		}
		_, _, body := c.get("/student/dashboard")
		if !strings.Contains(body, "You do not have access to that page.") {
			t.Errorf("dashboard does not show the access denied flash")
		}
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student@example.com")
	code, loc, _ := c.get("/auth/logout")
	if code != http.StatusSeeOther || loc != "/auth/login" {
		t.Fatalf("logout = %d %q, want 303 /auth/login", code, loc)
	}
	if code, loc, _ := c.get("/student/dashboard"); code != http.StatusSeeOther || loc != "/auth/login" {
		t.Errorf("dashboard after logout = %d %q, want redirect to login", code, loc)
	}
}

func TestStudentExamFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student@example.com")
	examPath := fmt.Sprintf("/student/exam/%d", env.examID)

	code, _, body := c.get("/student/dashboard")
	if code != http.StatusOK || !strings.Contains(body, "Databases") {
		t.Fatalf("dashboard = %d, want 200 listing the exam", code)
	}

	code, _, body = c.get(examPath)
	if code != http.StatusOK {
		t.Fatalf("GET exam = %d, want 200", code)
	}
	if !strings.Contains(body, "Which SQL keyword removes rows?") || !strings.Contains(body, "Explain normalization.") {
		t.Fatalf("exam sheet is missing questions")
	}

	// Save the essay answer on its own, then reload and expect it prefilled.
	essayField := fmt.Sprintf("q_%d", env.essayID)
	code, loc, _ := c.post("/student/exam/answer", url.Values{
		"question_id": {fmt.Sprint(env.essayID)},
		essayField:    {"Removing redundancy."},
	})
	if want := fmt.Sprintf("%s#q%d", examPath, env.essayID); code != http.StatusSeeOther || loc != want {
		t.Fatalf("save answer = %d %q, want 303 %q", code, loc, want)
	}
	_, _, body = c.get(examPath)
	if !strings.Contains(body, "Removing redundancy.") {
		t.Errorf("resumed sheet does not show the saved answer")
	}
	if !strings.Contains(body, "Answer saved.") {
		t.Errorf("resumed sheet does not show the saved flash")
	}

	code, _, body = c.post("/student/exam/submit", url.Values{
		fmt.Sprintf("q_%d", env.mcqID): {fmt.Sprint(env.rightChoice)},
		essayField:                     {"Removing redundancy."},
	})
	if code != http.StatusOK {
		t.Fatalf("submit = %d, want 200", code)
	}
	for _, want := range []string{"90.0 / 100.0", "90.0%", "<strong>A</strong>", "2 of 2", "Exam submitted."} {
		if !strings.Contains(body, want) {
			t.Errorf("result page missing %q", want)
		}
	}

	a, err := env.store.FindAttempt(context.Background(), env.studentID, env.examID)
	if err != nil {
		t.Fatalf("FindAttempt: %v", err)
	}
	if a.Score != 90 || a.Grade == nil || *a.Grade != "A" {
		t.Errorf("attempt = %+v, want score 90 grade A", a)
	}

	code, loc, _ = c.get(examPath)
	if code != http.StatusSeeOther || loc != "/student/dashboard" {
		t.Fatalf("retake = %d %q, want 303 /student/dashboard", code, loc)
	}
	_, _, body = c.get("/student/dashboard")
	if !strings.Contains(body, "You have already taken this exam.") {
		t.Errorf("dashboard does not show the already taken flash")
	}

	code, loc, _ = c.post("/student/exam/submit", nil)
	if code != http.StatusSeeOther || loc != "/student/dashboard" {
		t.Errorf("submit without attempt = %d %q, want 303 /student/dashboard", code, loc)
	}
}

func TestSaveAnswerKeepsWholeSheet(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student@example.com")
	examPath := fmt.Sprintf("/student/exam/%d", env.examID)
	c.get(examPath)

	code, loc, _ := c.post("/student/exam/answer", url.Values{
		"question_id":                      {fmt.Sprint(env.mcqID)},
		fmt.Sprintf("q_%d", env.mcqID):     {fmt.Sprint(env.rightChoice)},
		fmt.Sprintf("q_%d", env.essayID):   {"Draft essay not saved on its own."},
	})
	if want := fmt.Sprintf("%s#q%d", examPath, env.mcqID); code != http.StatusSeeOther || loc != want {
		t.Fatalf("save answer = %d %q, want 303 %q", code, loc, want)
	}

	_, _, body := c.get(examPath)
	if !strings.Contains(body, "Draft essay not saved on its own.") {
		t.Errorf("essay typed next to another question's Save button was lost")
	}
	if !strings.Contains(body, fmt.Sprintf(`value="%d" checked`, env.rightChoice)) {
		t.Errorf("selected choice is not checked after reload")
	}

	a, err := env.store.FindAttempt(context.Background(), env.studentID, env.examID)
	if err != nil {
		t.Fatalf("FindAttempt: %v", err)
	}
	answers, err := env.store.AnswersForAttempt(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("AnswersForAttempt: %v", err)
	}
	if len(answers) != 2 {
		t.Errorf("stored %d answers, want 2", len(answers))
	}

	code, _, _ = c.post("/student/exam/answer", url.Values{"question_id": {"999999"}})
	if code != http.StatusSeeOther {
		t.Errorf("unknown question = %d, want 303", code)
	}
}

func TestStudentWrongChoiceFails(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student@example.com")
	c.get(fmt.Sprintf("/student/exam/%d", env.examID))
	_, _, body := c.post("/student/exam/submit", url.Values{
		fmt.Sprintf("q_%d", env.mcqID): {fmt.Sprint(env.wrongChoice)},
	})
	if !strings.Contains(body, "<strong>F</strong>") || !strings.Contains(body, "1 of 2") {
		t.Errorf("result page should show grade F with one answer")
	}
}

func TestExamWithoutQuestionsNotReady(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.store.CreateExam(context.Background(), model.Exam{
		CourseID: env.courseID, InstructorID: env.instructorID, Semester: "Spring", Year: 2025, TotalMarks: 50,
	})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	c := env.client()
	c.login("student@example.com")
	code, loc, _ := c.get(fmt.Sprintf("/student/exam/%d", id))
	if code != http.StatusSeeOther || loc != "/student/dashboard" {
		t.Fatalf("GET empty exam = %d %q, want 303 /student/dashboard", code, loc)
	}
	_, _, body := c.get("/student/dashboard")
	if !strings.Contains(body, "This exam has no questions yet.") {
		t.Errorf("dashboard does not show the not ready flash")
	}
	if _, err := env.store.FindAttempt(context.Background(), env.studentID, id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("FindAttempt err = %v, want ErrNotFound", err)
	}
}

func TestInsights(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("student@example.com")

	_, _, body := c.get("/student/insights")
	if !strings.Contains(body, "No graded exams yet.") {
		t.Errorf("insights without scores should show the no-data notice")
	}
	if env.advisor.calls != 0 {
		t.Errorf("advisor called %d times without data", env.advisor.calls)
	}

	c.get(fmt.Sprintf("/student/exam/%d", env.examID))
	c.post("/student/exam/submit", url.Values{fmt.Sprintf("q_%d", env.mcqID): {fmt.Sprint(env.rightChoice)}})

	_, _, body = c.get("/student/insights")
	if !strings.Contains(body, "Review chapter 3 twice.") {
		t.Errorf("insights page does not show advice")
	}
	if !strings.Contains(body, "At least 3 graded exams are needed") {
		t.Errorf("insights page should report insufficient data for a prediction")
	}

	env.advisor.err = errors.New("model offline")
	code, _, body := c.get("/student/insights")
	if code != http.StatusOK || strings.Contains(body, "Review chapter 3 twice.") {
		t.Errorf("advisor failure should render the page without advice")
	}
}

func TestInstructorCreateExam(t *testing.T) {
	env := newTestEnv(t)
	other, err := env.store.CreateCourse(context.Background(), "Networks", 30, "", "")
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	tests := []struct {
		name      string
		form      url.Values
		wantFlash string
	}{
		{"ok", url.Values{"course_id": {fmt.Sprint(env.courseID)}, "semester": {"Spring"}, "year": {"2025"}, "total_marks": {"50"}, "time": {"01:00"}}, "Exam created."},
		{"not assigned", url.Values{"course_id": {fmt.Sprint(other)}, "semester": {"Spring"}, "year": {"2025"}, "total_marks": {"50"}}, "You do not teach that course."},
		{"bad year", url.Values{"course_id": {fmt.Sprint(env.courseID)}, "semester": {"Spring"}, "year": {"1900"}, "total_marks": {"50"}}, "Please check the form"},
		{"bad time", url.Values{"course_id": {fmt.Sprint(env.courseID)}, "semester": {"Spring"}, "year": {"2025"}, "total_marks": {"50"}, "time": {"soon"}}, "Please check the form"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := env.client()
			c.login("instructor@example.com")
			code, loc, _ := c.post("/instructor/exam/create", tt.form)
			if code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", code)
			}
			_, _, body := c.get(loc)
			if !strings.Contains(body, tt.wantFlash) {
				t.Errorf("page after create does not contain %q", tt.wantFlash)
			}
		})
	}
}

func TestInstructorAddQuestion(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("instructor@example.com")
	path := fmt.Sprintf("/instructor/exam/%d/questions", env.examID)

	code, loc, _ := c.post(path, url.Values{
		"type":    {"MCQ"},
		"text":    {"Which index type suits range scans?"},
		"choices": {"*B-tree\nHash\n\n"},
		"marks":   {"5"},
	})
	if code != http.StatusSeeOther {
		t.Fatalf("add question = %d, want 303", code)
	}
	_, _, body := c.get(loc)
	if !strings.Contains(body, "Question added.") || !strings.Contains(body, "Which index type suits range scans?") {
		t.Errorf("exam page does not show the new question")
	}

	questions, err := env.store.ExamQuestions(context.Background(), env.examID)
	if err != nil {
		t.Fatalf("ExamQuestions: %v", err)
	}
	if len(questions) != 3 || questions[2].Position != 3 || questions[2].Marks != 5 {
		t.Fatalf("questions = %+v, want new question at position 3 with 5 marks", questions)
	}
	choices, err := env.store.Choices(context.Background(), questions[2].ID)
	if err != nil {
		t.Fatalf("Choices: %v", err)
	}
	if len(choices) != 2 || !choices[0].Correct || choices[1].Correct {
		t.Errorf("choices = %+v, want B-tree correct and Hash wrong", choices)
	}

	code, _, _ = c.post(path, url.Values{"type": {"MCQ"}, "text": {"Only one choice"}, "choices": {"*yes"}})
	if code != http.StatusSeeOther {
		t.Fatalf("invalid question = %d, want 303", code)
	}
	if n, _ := env.store.QuestionCount(context.Background(), env.examID); n != 3 {
		t.Errorf("QuestionCount = %d, want 3 after rejected question", n)
	}
}

func TestInstructorCannotSeeOthersExam(t *testing.T) {
	env := newTestEnv(t)
	env.person("other@example.com", model.RoleInstructor)
	c := env.client()
	c.login("other@example.com")
	code, loc, _ := c.get(fmt.Sprintf("/instructor/exam/%d/students", env.examID))
	if code != http.StatusSeeOther || loc != "/instructor/dashboard" {
		t.Errorf("GET foreign exam = %d %q, want 303 /instructor/dashboard", code, loc)
	}
}

func TestManagerPages(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("manager@example.com")
	for _, p := range []string{"/manager/dashboard", "/manager/students", "/manager/instructors", "/manager/courses", "/manager/exams", "/manager/analytics", "/manager/users", "/manager/import"} {
		t.Run(p, func(t *testing.T) {
			code, _, _ := c.get(p)
			if code != http.StatusOK {
				t.Errorf("GET %s = %d, want 200", p, code)
			}
		})
	}
}

func TestManagerCreateUser(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("manager@example.com")
	c.get("/manager/users")
	code, loc, _ := c.post("/manager/users", url.Values{
		"first_name": {"Layla"}, "last_name": {"Hassan"}, "email": {"layla@example.com"},
		"password": {testPassword}, "role": {"Student"},
	})
	if code != http.StatusSeeOther || loc != "/manager/users" {
		t.Fatalf("create user = %d %q, want 303 /manager/users", code, loc)
	}
	p, err := env.store.GetPersonByEmail(context.Background(), "layla@example.com")
	if err != nil {
		t.Fatalf("GetPersonByEmail: %v", err)
	}
	if p.Role != model.RoleStudent {
		t.Errorf("role = %q, want Student", p.Role)
	}

	nc := env.client()
	nc.get("/auth/login")
	code, loc, _ = nc.post("/auth/login", url.Values{"email": {"layla@example.com"}, "password": {testPassword}})
	if code != http.StatusSeeOther || loc != "/student/dashboard" {
		t.Errorf("new user login = %d %q, want 303 /student/dashboard", code, loc)
	}
}

func TestManagerImport(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()
	c.login("manager@example.com")
	c.get("/manager/import")

	doc := `{"courses":[{"name":"Algorithms","hours":40,"instructors":["instructor@example.com"]}],
	"exams":[{"course":"Algorithms","instructor":"instructor@example.com","semester":"Fall","year":2024,"total_marks":10,
	"questions":[{"type":"MCQ","text":"Big-O of binary search?","marks":10,"choices":[{"text":"log n","correct":true},{"text":"n"}]}]}]}`

	upload := func() string {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("csrf_token", c.csrf())
		fw, err := mw.CreateFormFile("bank_file", "bank.json")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write([]byte(doc))
		mw.Close()
		resp, err := c.http.Post(c.base+"/manager/import", mw.FormDataContentType(), &buf)
		if err != nil {
			t.Fatalf("POST import: %v", err)
		}
		code, loc, _ := read(t, resp)
		if code != http.StatusSeeOther {
			t.Fatalf("import = %d, want 303", code)
		}
		_, _, body := c.get(loc)
		return body
	}

	if body := upload(); !strings.Contains(body, "Imported 1 courses, 1 exams and 1 questions.") {
		t.Errorf("first import does not report counts")
	}
	if body := upload(); !strings.Contains(body, "This file was already imported.") {
		t.Errorf("second import should be reported as unchanged")
	}
	if _, err := env.store.FindCourseByName(context.Background(), "Algorithms"); err != nil {
		t.Errorf("FindCourseByName: %v", err)
	}
}

func TestParseChoices(t *testing.T) {
	got := parseChoices(" *A \n\nB\n*  \n* C")
	want := []model.Choice{{Text: "A", Correct: true}, {Text: "B"}, {Text: "C", Correct: true}}
	if len(got) != len(want) {
		t.Fatalf("parseChoices = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("choice %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
