package panel

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/events"
	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

// QuestionAPI is the backend surface used by QuestionPanel.
type QuestionAPI interface {
	TeacherQuestions(ctx context.Context, testID int) ([]model.Question, error)
	AddQuestions(ctx context.Context, testID int, questions []model.QuestionInput) error
	GenerateQuestions(ctx context.Context, testID int, req model.GenerateQuestionsRequest) error
	DeleteQuestions(ctx context.Context, testID int, req model.DeleteQuestionsRequest) error
}

// QuestionPanel is the teacher's question list for one quiz, with a
// selection used for bulk delete.
type QuestionPanel struct {
	api     QuestionAPI
	testID  int
	bus     *events.Bus
	confirm Confirmer
	log     zerolog.Logger

	questions list[model.Question]

	selMu    sync.Mutex
	selected map[int]struct{}
}

// NewQuestionPanel creates a panel for the questions of testID.
func NewQuestionPanel(api QuestionAPI, testID int, bus *events.Bus, confirm Confirmer, log zerolog.Logger) *QuestionPanel {
	return &QuestionPanel{
		api:      api,
		testID:   testID,
		bus:      bus,
		confirm:  confirm,
		log:      log.With().Str("component", "question_panel").Int("test_id", testID).Logger(),
		selected: make(map[int]struct{}),
	}
}

func (p *QuestionPanel) scope() string { return strconv.Itoa(p.testID) }

// Watch re-fetches when a question mutation for this quiz is published.
func (p *QuestionPanel) Watch(ctx context.Context) (stop func()) {
	return p.bus.Subscribe(events.TopicQuestions, func(m events.Mutation) {
		if m.Scope != "" && m.Scope != p.scope() {
			return
		}
		if err := p.Refresh(ctx); err != nil {
			p.log.Warn().Err(err).Str("action", m.Action).Msg("Refresh after mutation failed")
		}
	})
}

// Refresh fetches the quiz's questions and drops selections that no longer exist.
func (p *QuestionPanel) Refresh(ctx context.Context) error {
	gen := p.questions.begin()
	questions, err := p.api.TeacherQuestions(ctx, p.testID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if !p.questions.apply(gen, questions) {
		return nil
	}

	present := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		present[q.QuestionID] = struct{}{}
	}
	p.selMu.Lock()
	for id := range p.selected {
		if _, ok := present[id]; !ok {
			delete(p.selected, id)
		}
	}
	p.selMu.Unlock()
	return nil
}

// Questions returns the last fetched list.
func (p *QuestionPanel) Questions() []model.Question { return p.questions.get() }

// Toggle flips the selection of questionID.
func (p *QuestionPanel) Toggle(questionID int) {
	p.selMu.Lock()
	defer p.selMu.Unlock()
	if _, ok := p.selected[questionID]; ok {
		delete(p.selected, questionID)
		return
	}
	p.selected[questionID] = struct{}{}
}

// SelectAll selects every listed question, or clears the selection when all
// are already selected.
func (p *QuestionPanel) SelectAll() {
	questions := p.questions.get()

	p.selMu.Lock()
	defer p.selMu.Unlock()
	if len(questions) > 0 && len(p.selected) == len(questions) {
		clear(p.selected)
		return
	}
	for _, q := range questions {
		p.selected[q.QuestionID] = struct{}{}
	}
}

// Selected returns the selected question ids in ascending order.
func (p *QuestionPanel) Selected() []int {
	p.selMu.Lock()
	defer p.selMu.Unlock()
	ids := make([]int, 0, len(p.selected))
	for id := range p.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsSelected reports whether questionID is selected.
func (p *QuestionPanel) IsSelected(questionID int) bool {
	p.selMu.Lock()
	defer p.selMu.Unlock()
	_, ok := p.selected[questionID]
	return ok
}

// Add sends manually written questions.
func (p *QuestionPanel) Add(ctx context.Context, questions ...model.QuestionInput) error {
	for i, q := range questions {
		if err := validator.Struct(q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	if err := p.api.AddQuestions(ctx, p.testID, questions); err != nil {
		return fmt.Errorf("add questions: %w", err)
	}
	p.log.Info().Int("count", len(questions)).Msg("Questions added")
	p.publish("create")
	return nil
}

// Generate asks the backend to generate questions automatically.
func (p *QuestionPanel) Generate(ctx context.Context, req model.GenerateQuestionsRequest) error {
	if err := validator.Struct(req); err != nil {
		return err
	}
	if err := p.api.GenerateQuestions(ctx, p.testID, req); err != nil {
		return fmt.Errorf("generate questions: %w", err)
	}
	p.log.Info().Int("total_questions", req.TotalQuestions).Msg("Questions generated")
	p.publish("generate")
	return nil
}

// DeleteSelected removes the selected questions once the user confirms.
func (p *QuestionPanel) DeleteSelected(ctx context.Context) error {
	ids := p.Selected()
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	if !p.confirm.Confirm(fmt.Sprintf("Delete %d selected question(s)?", len(ids))) {
		return ErrDeclined
	}
	if err := p.api.DeleteQuestions(ctx, p.testID, model.DeleteQuestionsRequest{QuestionIDs: ids}); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	p.selMu.Lock()
	for _, id := range ids {
		delete(p.selected, id)
	}
	p.selMu.Unlock()

	p.log.Info().Ints("question_ids", ids).Msg("Questions deleted")
	p.publish("delete")
	return nil
}

func (p *QuestionPanel) publish(action string) {
	p.bus.Publish(events.Mutation{Topic: events.TopicQuestions, Scope: p.scope(), Action: action})
}
