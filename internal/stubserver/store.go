// Package stubserver is an in-memory stand-in for the QuickQuiz REST backend,
// used by tests and local demos. Grading is exact match and analytics are
// plain sums over graded answers; it is a fixture, not a model of how the
// real backend grades or aggregates.
package stubserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/response"
)

// Error carries the HTTP status and code a store failure maps to.
type Error struct {
	Status  int
	Code    response.ErrCode
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(status int, code response.ErrCode) *Error {
	return &Error{Status: status, Code: code, Message: response.GetMessage(code)}
}

func failMsg(status int, code response.ErrCode, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

type userRecord struct {
	user model.User
	hash string
}

type courseRecord struct {
	course    model.Course
	teacherID int
}

type quizRecord struct {
	quiz      model.Quiz
	teacherID int
}

type attemptRecord struct {
	id          int
	testID      int
	studentID   int
	status      model.AttemptStatus
	startedAt   time.Time
	submittedAt time.Time
	answers     map[int]json.RawMessage
	score       float64
	timeTaken   int
}

// Store is the stub backend's in-memory state. All methods are safe for
// concurrent use.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	nextID int

	users       map[string]*userRecord // by lower-case email
	courses     map[string]*courseRecord
	courseOrder []string
	enrollments map[string]map[int]time.Time // course -> student -> enrolled at
	quizzes     map[int]*quizRecord
	questions   map[int][]model.Question // by test id, in insertion order
	attempts    map[int]*attemptRecord
}

// NewStore creates an empty store using now as its clock.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:         now,
		users:       make(map[string]*userRecord),
		courses:     make(map[string]*courseRecord),
		enrollments: make(map[string]map[int]time.Time),
		quizzes:     make(map[int]*quizRecord),
		questions:   make(map[int][]model.Question),
		attempts:    make(map[int]*attemptRecord),
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// ────────────────────────────────────────────────────────────────────────────
// Users
// ────────────────────────────────────────────────────────────────────────────

// CreateUser registers a user with an already hashed password.
func (s *Store) CreateUser(email, name string, role model.Role, hash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := s.users[key]; exists {
		return model.User{}, failMsg(http.StatusConflict, response.ErrConflict, "User already exists")
	}
	u := model.User{ID: s.id(), Email: email, Name: name, Role: role}
	s.users[key] = &userRecord{user: u, hash: hash}
	return u, nil
}

// UserByEmail returns the user and password hash for email.
func (s *Store) UserByEmail(email string) (model.User, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[strings.ToLower(email)]
	if !ok {
		return model.User{}, "", false
	}
	return rec.user, rec.hash, true
}

// ────────────────────────────────────────────────────────────────────────────
// Quiz state
// ────────────────────────────────────────────────────────────────────────────

// statusAt derives the lifecycle status of q at now.
func statusAt(q model.Quiz, now time.Time) model.QuizStatus {
	if q.StartTime == nil || q.StartTime.IsZero() {
		return model.QuizStatusNotPublished
	}
	switch end := q.EndTime(); {
	case now.Before(q.StartTime.Time):
		return model.QuizStatusPublished
	case !now.After(end):
		return model.QuizStatusActive
	default:
		return model.QuizStatusCompleted
	}
}

func isActive(q model.Quiz, now time.Time) bool {
	return statusAt(q, now) == model.QuizStatusActive
}

func (s *Store) quizView(rec *quizRecord) model.Quiz {
	q := rec.quiz
	q.Status = statusAt(q, s.now())
	q.TotalQuestions = len(s.questions[q.TestID])
	return q
}

// ────────────────────────────────────────────────────────────────────────────
// Teacher
// ────────────────────────────────────────────────────────────────────────────

func (s *Store) ownedCourse(teacherID int, courseID string) (*courseRecord, error) {
	rec, ok := s.courses[courseID]
	if !ok {
		return nil, failMsg(http.StatusNotFound, response.ErrNotFound, "Course not found")
	}
	if rec.teacherID != teacherID {
		return nil, fail(http.StatusForbidden, response.ErrNotCourseOwner)
	}
	return rec, nil
}

func (s *Store) ownedQuiz(teacherID, testID int) (*quizRecord, error) {
	rec, ok := s.quizzes[testID]
	if !ok {
		return nil, failMsg(http.StatusNotFound, response.ErrNotFound, "Test not found")
	}
	if rec.teacherID != teacherID {
		return nil, fail(http.StatusForbidden, response.ErrNotCourseOwner)
	}
	return rec, nil
}

// TeacherCourses lists the courses taught by teacherID.
func (s *Store) TeacherCourses(teacherID int) []model.Course {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Course{}
	for _, id := range s.courseOrder {
		rec := s.courses[id]
		if rec.teacherID != teacherID {
			continue
		}
		c := rec.course
		c.StudentsEnrolled = len(s.enrollments[id])
		out = append(out, c)
	}
	return out
}

// RegisterCourse creates a course owned by teacherID.
func (s *Store) RegisterCourse(teacherID int, req model.CreateCourseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[req.CourseID]; exists {
		return failMsg(http.StatusConflict, response.ErrConflict, "Course already exists")
	}
	s.courses[req.CourseID] = &courseRecord{
		teacherID: teacherID,
		course: model.Course{
			CourseID:         req.CourseID,
			CourseName:       req.CourseName,
			CourseLevel:      req.CourseLevel,
			CourseObjectives: req.CourseObjectives,
			OfferedAt:        slices.Clone(req.OfferedAt),
		},
	}
	s.courseOrder = append(s.courseOrder, req.CourseID)
	return nil
}

// DeleteCourse removes a course with its quizzes, questions, attempts and enrollments.
func (s *Store) DeleteCourse(teacherID int, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedCourse(teacherID, courseID); err != nil {
		return err
	}
	for testID, rec := range s.quizzes {
		if rec.quiz.CourseID != courseID {
			continue
		}
		s.deleteQuizLocked(testID)
	}
	delete(s.courses, courseID)
	delete(s.enrollments, courseID)
	s.courseOrder = slices.DeleteFunc(s.courseOrder, func(id string) bool { return id == courseID })
	return nil
}

func (s *Store) deleteQuizLocked(testID int) {
	delete(s.quizzes, testID)
	delete(s.questions, testID)
	for id, a := range s.attempts {
		if a.testID == testID {
			delete(s.attempts, id)
		}
	}
}

// TeacherQuizzes lists all quizzes of a course, newest first.
func (s *Store) TeacherQuizzes(teacherID int, courseID string) ([]model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedCourse(teacherID, courseID); err != nil {
		return nil, err
	}
	return s.courseQuizzesLocked(courseID, nil), nil
}

func (s *Store) courseQuizzesLocked(courseID string, keep func(model.Quiz) bool) []model.Quiz {
	out := []model.Quiz{}
	for _, rec := range s.quizzes {
		if rec.quiz.CourseID != courseID {
			continue
		}
		q := s.quizView(rec)
		if keep != nil && !keep(q) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestID > out[j].TestID })
	return out
}

// CreateQuiz adds an unpublished quiz and returns its test id.
func (s *Store) CreateQuiz(teacherID int, req model.CreateQuizRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedCourse(teacherID, req.CourseID); err != nil {
		return 0, err
	}
	id := s.id()
	s.quizzes[id] = &quizRecord{
		teacherID: teacherID,
		quiz: model.Quiz{
			TestID:          id,
			CourseID:        req.CourseID,
			Title:           req.Title,
			Description:     req.Description,
			DifficultyLevel: req.DifficultyLevel,
			DurationMinutes: req.DurationMinutes,
			TotalMarks:      req.TotalMarks,
			PassingMarks:    req.PassingMarks,
			CreatedAt:       model.NewTimestamp(s.now()),
		},
	}
	return id, nil
}

// PublishQuiz sets the start time of an unpublished quiz.
func (s *Store) PublishQuiz(teacherID, testID int, start time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedQuiz(teacherID, testID)
	if err != nil {
		return err
	}
	if rec.quiz.StartTime != nil {
		return fail(http.StatusBadRequest, response.ErrQuizNotDraft)
	}
	if len(s.questions[testID]) == 0 {
		return failMsg(http.StatusBadRequest, response.ErrValidation, "Quiz has no questions")
	}
	rec.quiz.StartTime = model.NewTimestamp(start)
	return nil
}

// ModifyDuration adds extra minutes (possibly negative) to a quiz.
func (s *Store) ModifyDuration(teacherID, testID, extra int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedQuiz(teacherID, testID)
	if err != nil {
		return err
	}
	if rec.quiz.DurationMinutes+extra <= 0 {
		return failMsg(http.StatusBadRequest, response.ErrValidation, "Duration must stay positive")
	}
	rec.quiz.DurationMinutes += extra
	return nil
}

// TeacherQuestions lists a quiz's questions including correct answers.
func (s *Store) TeacherQuestions(teacherID, testID int) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedQuiz(teacherID, testID); err != nil {
		return nil, err
	}
	return append([]model.Question{}, s.questions[testID]...), nil
}

// AddQuestions appends questions to a quiz.
func (s *Store) AddQuestions(teacherID, testID int, inputs []model.QuestionInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedQuiz(teacherID, testID)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		s.questions[testID] = append(s.questions[testID], model.Question{
			QuestionID:      s.id(),
			QuestionType:    in.QuestionType,
			QuestionText:    in.QuestionText,
			Options:         slices.Clone(in.Options),
			CorrectAnswer:   slices.Clone(in.CorrectAnswer),
			Tags:            slices.Clone(in.Tags),
			Marks:           in.Marks,
			DifficultyLevel: in.DifficultyLevel,
		})
	}
	s.recountMarksLocked(rec)
	return nil
}

// GenerateQuestions appends n arithmetic questions. Marks are split evenly
// over totalMarks when given, otherwise one mark each.
func (s *Store) GenerateQuestions(teacherID, testID int, req model.GenerateQuestionsRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedQuiz(teacherID, testID)
	if err != nil {
		return err
	}
	marks := 1.0
	if req.TotalMarks != nil && req.TotalQuestions > 0 {
		marks = *req.TotalMarks / float64(req.TotalQuestions)
	}
	for i := 0; i < req.TotalQuestions; i++ {
		s.questions[testID] = append(s.questions[testID], generatedQuestion(s.id(), i, marks, rec.quiz.DifficultyLevel))
	}
	s.recountMarksLocked(rec)
	return nil
}

// DeleteQuestions removes the listed questions from a quiz.
func (s *Store) DeleteQuestions(teacherID, testID int, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedQuiz(teacherID, testID)
	if err != nil {
		return err
	}
	s.questions[testID] = slices.DeleteFunc(s.questions[testID], func(q model.Question) bool {
		return slices.Contains(ids, q.QuestionID)
	})
	s.recountMarksLocked(rec)
	return nil
}

func (s *Store) recountMarksLocked(rec *quizRecord) {
	total := 0.0
	for _, q := range s.questions[rec.quiz.TestID] {
		total += q.Marks
	}
	rec.quiz.TotalMarks = total
}

// ────────────────────────────────────────────────────────────────────────────
// Student
// ────────────────────────────────────────────────────────────────────────────

func (s *Store) enrolled(studentID int, courseID string) bool {
	_, ok := s.enrollments[courseID][studentID]
	return ok
}

// StudentCourses lists the courses studentID is enrolled in.
func (s *Store) StudentCourses(studentID int) []model.Course {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Course{}
	for _, id := range s.courseOrder {
		at, ok := s.enrollments[id][studentID]
		if !ok {
			continue
		}
		c := s.courses[id].course
		out = append(out, model.Course{
			CourseID:    c.CourseID,
			CourseName:  c.CourseName,
			CourseLevel: c.CourseLevel,
			EnrolledAt:  model.NewTimestamp(at),
		})
	}
	return out
}

// AvailableCourses lists the courses studentID is not enrolled in.
func (s *Store) AvailableCourses(studentID int) []model.Course {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Course{}
	for _, id := range s.courseOrder {
		if s.enrolled(studentID, id) {
			continue
		}
		c := s.courses[id].course
		c.StudentsEnrolled = 0
		out = append(out, c)
	}
	return out
}

// Enroll adds studentID to a course. Enrolling twice is not an error.
func (s *Store) Enroll(studentID int, courseID string) (already bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[courseID]; !ok {
		return false, failMsg(http.StatusNotFound, response.ErrNotFound, "Course not found")
	}
	if s.enrolled(studentID, courseID) {
		return true, nil
	}
	if s.enrollments[courseID] == nil {
		s.enrollments[courseID] = make(map[int]time.Time)
	}
	s.enrollments[courseID][studentID] = s.now()
	return false, nil
}

// Unenroll removes studentID from a course.
func (s *Store) Unenroll(studentID int, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enrolled(studentID, courseID) {
		return failMsg(http.StatusNotFound, response.ErrNotEnrolled, "Not enrolled in this course")
	}
	delete(s.enrollments[courseID], studentID)
	return nil
}

func (s *Store) studentAttempt(studentID, testID int, status model.AttemptStatus) *attemptRecord {
	for _, a := range s.attempts {
		if a.studentID == studentID && a.testID == testID && a.status == status {
			return a
		}
	}
	return nil
}

// StudentQuizzes lists the published quizzes of a course with the
// student-facing state.
func (s *Store) StudentQuizzes(studentID int, courseID string) ([]model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enrolled(studentID, courseID) {
		return nil, fail(http.StatusForbidden, response.ErrNotEnrolled)
	}
	now := s.now()
	quizzes := s.courseQuizzesLocked(courseID, func(q model.Quiz) bool {
		return q.Status != model.QuizStatusNotPublished
	})
	for i := range quizzes {
		q := &quizzes[i]
		submitted := s.studentAttempt(studentID, q.TestID, model.AttemptStatusSubmitted) != nil
		inProgress := s.studentAttempt(studentID, q.TestID, model.AttemptStatusInProgress)

		switch {
		case submitted:
			q.State, q.CanAttempt = model.QuizStatusCompleted, false
		case isActive(*q, now):
			q.State, q.CanAttempt = model.QuizStatusActive, true
		case q.Status == model.QuizStatusCompleted:
			q.State, q.CanAttempt = model.QuizStatusCompleted, false
		default:
			q.State, q.CanAttempt = model.QuizStatusPublished, false
		}
		if inProgress != nil {
			id := inProgress.id
			q.HasInProgress = true
			q.AttemptID = &id
		}
	}
	return quizzes, nil
}

func (s *Store) studentQuiz(studentID, testID int) (*quizRecord, error) {
	rec, ok := s.quizzes[testID]
	if !ok {
		return nil, failMsg(http.StatusNotFound, response.ErrNotFound, "Test not found")
	}
	if !s.enrolled(studentID, rec.quiz.CourseID) {
		return nil, fail(http.StatusForbidden, response.ErrNotEnrolled)
	}
	return rec, nil
}

// StartAttempt starts an attempt or resumes the in-progress one. created
// reports whether a new attempt was made.
func (s *Store) StartAttempt(studentID, testID int) (resp model.StartAttemptResponse, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.studentQuiz(studentID, testID)
	if err != nil {
		return resp, false, err
	}
	if !isActive(rec.quiz, s.now()) {
		return resp, false, fail(http.StatusForbidden, response.ErrTestNotActive)
	}
	if s.studentAttempt(studentID, testID, model.AttemptStatusSubmitted) != nil {
		return resp, false, fail(http.StatusForbidden, response.ErrAlreadySubmitted)
	}

	a := s.studentAttempt(studentID, testID, model.AttemptStatusInProgress)
	msg := "Resuming existing attempt"
	if a == nil {
		a = &attemptRecord{
			id:        s.id(),
			testID:    testID,
			studentID: studentID,
			status:    model.AttemptStatusInProgress,
			startedAt: s.now(),
			answers:   make(map[int]json.RawMessage),
		}
		s.attempts[a.id] = a
		msg, created = "Attempt started successfully", true
	}
	return model.StartAttemptResponse{
		Message:             msg,
		AttemptID:           a.id,
		StartedAt:           model.NewTimestamp(a.startedAt),
		TestDurationMinutes: rec.quiz.DurationMinutes,
	}, created, nil
}

// AttemptQuestions returns the questions of the student's in-progress
// attempt without correct answers, with saved answers filled in.
func (s *Store) AttemptQuestions(studentID, testID int) (model.QuestionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.studentQuiz(studentID, testID)
	if err != nil {
		return model.QuestionSet{}, err
	}
	if !isActive(rec.quiz, s.now()) {
		return model.QuestionSet{}, fail(http.StatusForbidden, response.ErrTestNotActive)
	}
	a := s.studentAttempt(studentID, testID, model.AttemptStatusInProgress)
	if a == nil {
		return model.QuestionSet{}, fail(http.StatusForbidden, response.ErrNoActiveAttempt)
	}

	questions := make([]model.Question, 0, len(s.questions[testID]))
	for _, q := range s.questions[testID] {
		q.CorrectAnswer = nil
		q.SavedAnswer = a.answers[q.QuestionID]
		questions = append(questions, q)
	}
	return model.QuestionSet{
		TestID:          testID,
		AttemptID:       a.id,
		Questions:       questions,
		StartedAt:       model.NewTimestamp(a.startedAt),
		DurationMinutes: rec.quiz.DurationMinutes,
	}, nil
}

func (s *Store) activeAttempt(studentID, attemptID int) (*attemptRecord, error) {
	a, ok := s.attempts[attemptID]
	if !ok || a.studentID != studentID || a.status != model.AttemptStatusInProgress {
		return nil, failMsg(http.StatusNotFound, response.ErrNoActiveAttempt, "Active attempt not found")
	}
	return a, nil
}

func (s *Store) question(testID, questionID int) (model.Question, bool) {
	for _, q := range s.questions[testID] {
		if q.QuestionID == questionID {
			return q, true
		}
	}
	return model.Question{}, false
}

// SaveAnswer stores one answer of an in-progress attempt.
func (s *Store) SaveAnswer(studentID, attemptID, questionID int, answer json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.activeAttempt(studentID, attemptID)
	if err != nil {
		return err
	}
	if !isActive(s.quizzes[a.testID].quiz, s.now()) {
		return fail(http.StatusForbidden, response.ErrTestTimeExpired)
	}
	if _, ok := s.question(a.testID, questionID); !ok {
		return fail(http.StatusNotFound, response.ErrQuestionNotInTest)
	}
	a.answers[questionID] = slices.Clone(answer)
	return nil
}

// SubmitAttempt merges the submitted answers, scores the attempt and closes it.
// Answers to questions outside the quiz are ignored.
func (s *Store) SubmitAttempt(studentID, attemptID int, answers []model.SubmittedAnswer) (model.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.activeAttempt(studentID, attemptID)
	if err != nil {
		return model.SubmitResult{}, err
	}
	for _, ans := range answers {
		if _, ok := s.question(a.testID, ans.QuestionID); ok {
			a.answers[ans.QuestionID] = slices.Clone(ans.SelectedOptions)
		}
	}

	now := s.now()
	quiz := s.quizzes[a.testID].quiz
	a.score = 0
	for _, q := range s.questions[a.testID] {
		if isCorrect(q, a.answers[q.QuestionID]) {
			a.score += q.Marks
		}
	}
	a.status = model.AttemptStatusSubmitted
	a.submittedAt = now
	a.timeTaken = int(now.Sub(a.startedAt).Seconds())

	return model.SubmitResult{
		Message:          "Test submitted successfully",
		AttemptID:        a.id,
		TotalScore:       a.score,
		Percentage:       percent(a.score, quiz.TotalMarks),
		Passed:           a.score >= quiz.PassingMarks,
		TimeTakenSeconds: a.timeTaken,
	}, nil
}

// Results summarises the student's attempts per quiz.
func (s *Store) Results(studentID int) []model.ResultSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTest := make(map[int][]*attemptRecord)
	for _, a := range s.attempts {
		if a.studentID == studentID {
			byTest[a.testID] = append(byTest[a.testID], a)
		}
	}

	out := []model.ResultSummary{}
	for testID, atts := range byTest {
		quiz := s.quizzes[testID].quiz
		r := model.ResultSummary{
			TestID:        testID,
			Title:         quiz.Title,
			CourseID:      quiz.CourseID,
			TotalMarks:    quiz.TotalMarks,
			PassingMarks:  quiz.PassingMarks,
			AttemptsCount: len(atts),
		}
		var best, last *attemptRecord
		for _, a := range atts {
			if a.status != model.AttemptStatusSubmitted {
				continue
			}
			r.SubmittedCount++
			if best == nil || a.score > best.score {
				best = a
			}
			if last == nil || a.submittedAt.After(last.submittedAt) {
				last = a
			}
		}
		if best != nil {
			bestScore, bestPct, lastScore := best.score, percent(best.score, quiz.TotalMarks), last.score
			passed := best.score >= quiz.PassingMarks
			r.BestScore, r.BestPercentage, r.LastScore, r.Passed = &bestScore, &bestPct, &lastScore, &passed
			r.LastAttemptedAt = model.NewTimestamp(last.submittedAt)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestID < out[j].TestID })
	return out
}

func percent(score, total float64) float64 {
	if total == 0 {
		return 0
	}
	return score / total * 100
}

// TestResults returns every attempt the student made at one quiz, newest
// first, with a per-question review.
func (s *Store) TestResults(studentID, testID int) (model.TestResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.studentQuiz(studentID, testID)
	if err != nil {
		return model.TestResults{}, err
	}
	return model.TestResults{
		TestID:          testID,
		Title:           rec.quiz.Title,
		CourseID:        rec.quiz.CourseID,
		DurationMinutes: rec.quiz.DurationMinutes,
		TotalMarks:      rec.quiz.TotalMarks,
		PassingMarks:    rec.quiz.PassingMarks,
		Attempts:        s.reviewsLocked(studentID, rec.quiz),
	}, nil
}

// TestAttempts lists the student's attempts at one quiz, newest first.
func (s *Store) TestAttempts(studentID, testID int) ([]model.AttemptReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.studentQuiz(studentID, testID)
	if err != nil {
		return nil, err
	}
	return s.reviewsLocked(studentID, rec.quiz), nil
}

func (s *Store) reviewsLocked(studentID int, quiz model.Quiz) []model.AttemptReview {
	var atts []*attemptRecord
	for _, a := range s.attempts {
		if a.studentID == studentID && a.testID == quiz.TestID {
			atts = append(atts, a)
		}
	}
	sort.Slice(atts, func(i, j int) bool {
		if !atts[i].startedAt.Equal(atts[j].startedAt) {
			return atts[i].startedAt.After(atts[j].startedAt)
		}
		return atts[i].id > atts[j].id
	})

	out := make([]model.AttemptReview, 0, len(atts))
	for _, a := range atts {
		out = append(out, s.reviewLocked(a, quiz))
	}
	return out
}

// reviewLocked lists the answered questions of an in-progress attempt, or
// every question with its marks once the attempt is submitted.
func (s *Store) reviewLocked(a *attemptRecord, quiz model.Quiz) model.AttemptReview {
	r := model.AttemptReview{
		AttemptID: a.id,
		Status:    a.status,
		StartedAt: model.NewTimestamp(a.startedAt),
		Questions: []model.QuestionReview{},
	}
	submitted := a.status == model.AttemptStatusSubmitted
	if submitted {
		score, pct, passed, taken := a.score, percent(a.score, quiz.TotalMarks), a.score >= quiz.PassingMarks, a.timeTaken
		r.SubmittedAt = model.NewTimestamp(a.submittedAt)
		r.TotalScore, r.Percentage, r.Passed, r.TimeTakenSeconds = &score, &pct, &passed, &taken
	}

	for _, q := range s.questions[quiz.TestID] {
		raw, answered := a.answers[q.QuestionID]
		if !answered && !submitted {
			continue
		}
		qr := model.QuestionReview{
			QuestionID:     q.QuestionID,
			QuestionText:   q.QuestionText,
			QuestionType:   q.QuestionType,
			SelectedAnswer: slices.Clone(raw),
			MaxMarks:       q.Marks,
		}
		if submitted {
			correct := isCorrect(q, raw)
			obtained := 0.0
			if correct {
				obtained = q.Marks
			}
			qr.IsCorrect, qr.MarksObtained = &correct, &obtained
			qr.CorrectAnswer = slices.Clone(q.CorrectAnswer)
			qr.Options = q.Options
		}
		r.Questions = append(r.Questions, qr)
	}
	return r
}
