package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/events"
	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

// startTimeLayout is the zone-less layout the backend expects for publish.
const startTimeLayout = "2006-01-02T15:04:05"

// ErrInvalidStartTime is returned by Publish for an unparseable start time.
var ErrInvalidStartTime = errors.New("start time must look like 2006-01-02 15:04")

// QuizAPI is the backend surface used by QuizPanel.
type QuizAPI interface {
	TeacherQuizzes(ctx context.Context, courseID string) ([]model.Quiz, error)
	StudentQuizzes(ctx context.Context, courseID string) ([]model.Quiz, error)
	CreateQuiz(ctx context.Context, req model.CreateQuizRequest) (int, error)
	PublishQuiz(ctx context.Context, testID int, req model.PublishQuizRequest) error
	ModifyQuizDuration(ctx context.Context, testID int, req model.ModifyDurationRequest) error
}

// QuizPanel lists the quizzes of one course.
type QuizPanel struct {
	api      QuizAPI
	role     model.Role
	courseID string
	bus      *events.Bus
	log      zerolog.Logger

	quizzes list[model.Quiz]
}

// NewQuizPanel creates a panel for the quizzes of courseID.
func NewQuizPanel(api QuizAPI, role model.Role, courseID string, bus *events.Bus, log zerolog.Logger) *QuizPanel {
	return &QuizPanel{
		api:      api,
		role:     role,
		courseID: courseID,
		bus:      bus,
		log:      log.With().Str("component", "quiz_panel").Str("course_id", courseID).Logger(),
	}
}

// Watch re-fetches when a quiz mutation for this course is published.
func (p *QuizPanel) Watch(ctx context.Context) (stop func()) {
	return p.bus.Subscribe(events.TopicQuizzes, func(m events.Mutation) {
		if m.Scope != "" && m.Scope != p.courseID {
			return
		}
		if err := p.Refresh(ctx); err != nil {
			p.log.Warn().Err(err).Str("action", m.Action).Msg("Refresh after mutation failed")
		}
	})
}

// Refresh fetches the course's quizzes. On failure the previous list is kept.
func (p *QuizPanel) Refresh(ctx context.Context) error {
	gen := p.quizzes.begin()

	var (
		quizzes []model.Quiz
		err     error
	)
	if p.role == model.RoleTeacher {
		quizzes, err = p.api.TeacherQuizzes(ctx, p.courseID)
	} else {
		quizzes, err = p.api.StudentQuizzes(ctx, p.courseID)
	}
	if err != nil {
		return fmt.Errorf("load quizzes: %w", err)
	}
	p.quizzes.apply(gen, quizzes)
	return nil
}

// Quizzes returns the last fetched list.
func (p *QuizPanel) Quizzes() []model.Quiz { return p.quizzes.get() }

// CourseID returns the course this panel lists.
func (p *QuizPanel) CourseID() string { return p.courseID }

// Find returns the listed quiz with testID.
func (p *QuizPanel) Find(testID int) (model.Quiz, bool) {
	for _, q := range p.quizzes.get() {
		if q.TestID == testID {
			return q, true
		}
	}
	return model.Quiz{}, false
}

// Create adds a quiz to the panel's course and returns its test id.
func (p *QuizPanel) Create(ctx context.Context, req model.CreateQuizRequest) (int, error) {
	if p.role != model.RoleTeacher {
		return 0, ErrWrongRole
	}
	req.CourseID = p.courseID
	if err := validator.Struct(req); err != nil {
		return 0, err
	}
	testID, err := p.api.CreateQuiz(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("create quiz: %w", err)
	}
	p.log.Info().Int("test_id", testID).Msg("Quiz created")
	p.publish("create")
	return testID, nil
}

// Publish schedules a quiz to start at startTime (local wall clock as typed).
func (p *QuizPanel) Publish(ctx context.Context, testID int, startTime string) error {
	if p.role != model.RoleTeacher {
		return ErrWrongRole
	}
	req := model.PublishQuizRequest{StartTime: strings.TrimSpace(startTime)}
	if err := validator.Struct(req); err != nil {
		return err
	}
	ts, err := model.ParseTimestamp(strings.Replace(req.StartTime, " ", "T", 1))
	if err != nil {
		return ErrInvalidStartTime
	}
	req.StartTime = ts.Format(startTimeLayout)

	if err := p.api.PublishQuiz(ctx, testID, req); err != nil {
		return fmt.Errorf("publish quiz: %w", err)
	}
	p.log.Info().Int("test_id", testID).Str("start_time", req.StartTime).Msg("Quiz published")
	p.publish("publish")
	return nil
}

// ModifyDuration adds extraMinutes (possibly negative) to a quiz's duration.
func (p *QuizPanel) ModifyDuration(ctx context.Context, testID, extraMinutes int) error {
	if p.role != model.RoleTeacher {
		return ErrWrongRole
	}
	req := model.ModifyDurationRequest{ExtraTime: extraMinutes}
	if err := validator.Struct(req); err != nil {
		return err
	}
	if err := p.api.ModifyQuizDuration(ctx, testID, req); err != nil {
		return fmt.Errorf("modify duration: %w", err)
	}
	p.publish("modify_duration")
	return nil
}

func (p *QuizPanel) publish(action string) {
	p.bus.Publish(events.Mutation{Topic: events.TopicQuizzes, Scope: p.courseID, Action: action})
}
