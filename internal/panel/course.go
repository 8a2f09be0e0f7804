package panel

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/events"
	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

// CourseAPI is the backend surface used by CoursePanel.
type CourseAPI interface {
	TeacherCourses(ctx context.Context) ([]model.Course, error)
	RegisterCourse(ctx context.Context, req model.CreateCourseRequest) error
	DeleteCourse(ctx context.Context, courseID string) error

	StudentCourses(ctx context.Context) ([]model.Course, error)
	AvailableCourses(ctx context.Context) ([]model.Course, error)
	Enroll(ctx context.Context, courseID string) error
	Unenroll(ctx context.Context, courseID string) error
}

// CoursePanel lists a teacher's courses, or a student's enrolled and
// available courses, and performs course mutations.
type CoursePanel struct {
	api     CourseAPI
	role    model.Role
	bus     *events.Bus
	confirm Confirmer
	log     zerolog.Logger

	courses   list[model.Course]
	available list[model.Course]
}

// NewCoursePanel creates a panel for role.
func NewCoursePanel(api CourseAPI, role model.Role, bus *events.Bus, confirm Confirmer, log zerolog.Logger) *CoursePanel {
	return &CoursePanel{
		api:     api,
		role:    role,
		bus:     bus,
		confirm: confirm,
		log:     log.With().Str("component", "course_panel").Logger(),
	}
}

// Watch re-fetches the panel whenever a course mutation is published, using
// ctx for the requests. The returned function stops watching.
func (p *CoursePanel) Watch(ctx context.Context) (stop func()) {
	return p.bus.Subscribe(events.TopicCourses, func(m events.Mutation) {
		if err := p.Refresh(ctx); err != nil {
			p.log.Warn().Err(err).Str("action", m.Action).Msg("Refresh after mutation failed")
		}
	})
}

// Refresh fetches the course lists. On failure the previous lists are kept.
func (p *CoursePanel) Refresh(ctx context.Context) error {
	if p.role == model.RoleTeacher {
		gen := p.courses.begin()
		courses, err := p.api.TeacherCourses(ctx)
		if err != nil {
			return fmt.Errorf("load courses: %w", err)
		}
		p.courses.apply(gen, courses)
		return nil
	}

	enrolledGen := p.courses.begin()
	availableGen := p.available.begin()

	enrolled, err := p.api.StudentCourses(ctx)
	if err != nil {
		return fmt.Errorf("load enrolled courses: %w", err)
	}
	p.courses.apply(enrolledGen, enrolled)

	available, err := p.api.AvailableCourses(ctx)
	if err != nil {
		return fmt.Errorf("load available courses: %w", err)
	}
	p.available.apply(availableGen, available)
	return nil
}

// Courses returns the teacher's courses or the student's enrolled courses.
func (p *CoursePanel) Courses() []model.Course { return p.courses.get() }

// Available returns courses a student may enroll in.
func (p *CoursePanel) Available() []model.Course { return p.available.get() }

// Loaded reports whether at least one refresh has succeeded.
func (p *CoursePanel) Loaded() bool { return p.courses.isLoaded() }

// Find returns the listed course with id, matching case-insensitively.
func (p *CoursePanel) Find(courseID string) (model.Course, bool) {
	for _, c := range p.courses.get() {
		if strings.EqualFold(c.CourseID, courseID) {
			return c, true
		}
	}
	return model.Course{}, false
}

// Register creates a course after checking required fields.
func (p *CoursePanel) Register(ctx context.Context, req model.CreateCourseRequest) error {
	if p.role != model.RoleTeacher {
		return ErrWrongRole
	}
	req.CourseID = strings.TrimSpace(req.CourseID)
	if err := validator.Struct(req); err != nil {
		return err
	}
	if err := p.api.RegisterCourse(ctx, req); err != nil {
		return fmt.Errorf("register course: %w", err)
	}
	p.log.Info().Str("course_id", req.CourseID).Msg("Course registered")
	p.bus.Publish(events.Mutation{Topic: events.TopicCourses, Scope: req.CourseID, Action: "create"})
	return nil
}

// Delete removes a course once the user confirms.
func (p *CoursePanel) Delete(ctx context.Context, courseID string) error {
	if p.role != model.RoleTeacher {
		return ErrWrongRole
	}
	if !p.confirm.Confirm(fmt.Sprintf("Delete course %s and all its quizzes?", courseID)) {
		return ErrDeclined
	}
	if err := p.api.DeleteCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	p.log.Info().Str("course_id", courseID).Msg("Course deleted")
	p.bus.Publish(events.Mutation{Topic: events.TopicCourses, Scope: courseID, Action: "delete"})
	return nil
}

// Enroll adds the student to a course.
func (p *CoursePanel) Enroll(ctx context.Context, courseID string) error {
	if p.role != model.RoleStudent {
		return ErrWrongRole
	}
	if err := validator.Struct(model.EnrollRequest{CourseID: strings.TrimSpace(courseID)}); err != nil {
		return err
	}
	if err := p.api.Enroll(ctx, courseID); err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	p.bus.Publish(events.Mutation{Topic: events.TopicCourses, Scope: courseID, Action: "enroll"})
	return nil
}

// Unenroll removes the student from a course once the user confirms.
func (p *CoursePanel) Unenroll(ctx context.Context, courseID string) error {
	if p.role != model.RoleStudent {
		return ErrWrongRole
	}
	if !p.confirm.Confirm(fmt.Sprintf("Unenroll from %s?", courseID)) {
		return ErrDeclined
	}
	if err := p.api.Unenroll(ctx, courseID); err != nil {
		return fmt.Errorf("unenroll: %w", err)
	}
	p.bus.Publish(events.Mutation{Topic: events.TopicCourses, Scope: courseID, Action: "unenroll"})
	return nil
}
