package stubserver

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"slices"
	"sort"
	"strconv"

	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/response"
)

const (
	natTolerance   = 1e-6
	weakTopicBelow = 60.0
	topTopics      = 5
	pendingMessage = "Analytics will be available after the quiz ends"
	noAttemptsMsg  = "No submitted attempts found"
)

// isCorrect compares a stored answer with the question's correct answer.
func isCorrect(q model.Question, raw json.RawMessage) bool {
	given, err := model.DecodeAnswer(q.QuestionType, raw)
	if err != nil || given == nil {
		return false
	}
	want, err := model.DecodeAnswer(q.QuestionType, q.CorrectAnswer)
	if err != nil || want == nil {
		return false
	}

	switch w := want.(type) {
	case model.ChoiceAnswer:
		return given.(model.ChoiceAnswer).OptionID == w.OptionID
	case model.MultiChoiceAnswer:
		a := slices.Clone(given.(model.MultiChoiceAnswer).OptionIDs)
		b := slices.Clone(w.OptionIDs)
		slices.Sort(a)
		slices.Sort(b)
		return slices.Equal(slices.Compact(a), slices.Compact(b))
	case model.NumericAnswer:
		return math.Abs(given.(model.NumericAnswer).Number-w.Number) < natTolerance
	}
	return false
}

// generatedQuestion builds the n-th placeholder arithmetic question.
func generatedQuestion(id, n int, marks float64, difficulty string) model.Question {
	a, b := n+2, n+3
	sum := a + b
	options := make([]model.Option, 0, 4)
	for i, v := range []int{sum, sum + 1, sum - 1, sum + 2} {
		options = append(options, model.Option{ID: string(rune('A' + i)), Text: strconv.Itoa(v)})
	}
	if difficulty == "" {
		difficulty = "easy"
	}
	return model.Question{
		QuestionID:      id,
		QuestionType:    model.QuestionTypeMCQ,
		QuestionText:    fmt.Sprintf("What is %d + %d?", a, b),
		Options:         options,
		CorrectAnswer:   json.RawMessage(`"A"`),
		Tags:            []string{"arithmetic"},
		Marks:           marks,
		DifficultyLevel: difficulty,
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Analytics
// ────────────────────────────────────────────────────────────────────────────

func addRatio(m map[string]model.Ratio, key string, obtained, total float64) {
	r := m[key]
	r.Obtained += obtained
	r.Total += total
	m[key] = r
}

// AttemptAnalytics breaks down a submitted attempt by difficulty, type and
// tag. It stays pending until the quiz window closes.
func (s *Store) AttemptAnalytics(studentID, attemptID int) (model.AttemptAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[attemptID]
	if !ok || a.studentID != studentID {
		return model.AttemptAnalytics{}, failMsg(http.StatusNotFound, response.ErrNotFound, "Attempt not found")
	}
	if a.status != model.AttemptStatusSubmitted {
		return model.AttemptAnalytics{}, failMsg(http.StatusBadRequest, response.ErrValidation, "Attempt not submitted")
	}
	quiz := s.quizzes[a.testID].quiz
	if s.now().Before(quiz.EndTime()) {
		return model.AttemptAnalytics{Status: model.AnalyticsStatusPending, Message: pendingMessage}, nil
	}

	stats := &model.AttemptStats{
		Difficulty: map[string]model.Ratio{},
		Type:       map[string]model.Ratio{},
		Tags:       map[string]model.Ratio{},
	}
	for _, q := range s.questions[a.testID] {
		got := 0.0
		if isCorrect(q, a.answers[q.QuestionID]) {
			got = q.Marks
		}
		addRatio(stats.Difficulty, q.DifficultyLevel, got, q.Marks)
		addRatio(stats.Type, string(q.QuestionType), got, q.Marks)
		for _, tag := range q.Tags {
			addRatio(stats.Tags, tag, got, q.Marks)
		}
	}
	return model.AttemptAnalytics{Stats: stats}, nil
}

// CourseAnalytics summarises a student's submitted attempts in a course.
func (s *Store) CourseAnalytics(studentID int, courseID string) (model.CourseAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enrolled(studentID, courseID) {
		return model.CourseAnalytics{}, fail(http.StatusForbidden, response.ErrNotEnrolled)
	}

	var submitted []*attemptRecord
	for _, a := range s.attempts {
		if a.studentID == studentID && a.status == model.AttemptStatusSubmitted &&
			s.quizzes[a.testID].quiz.CourseID == courseID {
			submitted = append(submitted, a)
		}
	}
	if len(submitted) == 0 {
		return model.CourseAnalytics{Message: noAttemptsMsg}, nil
	}
	sort.Slice(submitted, func(i, j int) bool { return submitted[i].submittedAt.Before(submitted[j].submittedAt) })

	out := model.CourseAnalytics{Trend: model.Trend{Labels: []string{}, Data: []float64{}}, WeakTopics: []model.WeakTopic{}}
	tags := map[string]model.Ratio{}
	totalTime := 0
	for _, a := range submitted {
		quiz := s.quizzes[a.testID].quiz
		totalTime += a.timeTaken
		out.Trend.Labels = append(out.Trend.Labels, quiz.Title)
		out.Trend.Data = append(out.Trend.Data, math.Round(percent(a.score, quiz.TotalMarks)*100)/100)

		for _, q := range s.questions[a.testID] {
			got := 0.0
			if isCorrect(q, a.answers[q.QuestionID]) {
				got = q.Marks
			}
			for _, tag := range q.Tags {
				addRatio(tags, tag, got, q.Marks)
			}
		}
	}
	out.AvgTimeSeconds = float64(totalTime) / float64(len(submitted))

	for _, tag := range sortedKeys(tags) {
		if acc := tags[tag].Percent(); acc < weakTopicBelow {
			out.WeakTopics = append(out.WeakTopics, model.WeakTopic{Topic: tag, Accuracy: math.Round(acc*100) / 100})
		}
	}
	return out, nil
}

// QuizAnalytics returns score statistics and the topics that lost the most
// marks across all submitted attempts of a quiz.
func (s *Store) QuizAnalytics(teacherID, testID int) (model.QuizAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedQuiz(teacherID, testID); err != nil {
		return model.QuizAnalytics{}, err
	}

	var scores []float64
	lost := map[string]float64{}
	for _, a := range s.attempts {
		if a.testID != testID || a.status != model.AttemptStatusSubmitted {
			continue
		}
		scores = append(scores, a.score)
		for _, q := range s.questions[testID] {
			if isCorrect(q, a.answers[q.QuestionID]) {
				continue
			}
			for _, tag := range q.Tags {
				lost[tag] += q.Marks
			}
		}
	}

	ranking := make([]model.TopicLoss, 0, len(lost))
	for tag, marks := range lost {
		ranking = append(ranking, model.TopicLoss{Topic: tag, MarksLost: marks})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].MarksLost != ranking[j].MarksLost {
			return ranking[i].MarksLost > ranking[j].MarksLost
		}
		return ranking[i].Topic < ranking[j].Topic
	})
	if len(ranking) > topTopics {
		ranking = ranking[:topTopics]
	}
	return model.QuizAnalytics{Metrics: scoreMetrics(scores), TopicRanking: ranking}, nil
}

// scoreMetrics computes population statistics; empty input yields zeros.
func scoreMetrics(scores []float64) model.ScoreMetrics {
	m := model.ScoreMetrics{Count: len(scores)}
	if len(scores) == 0 {
		return m
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	m.Mean = sum / float64(len(sorted))
	m.Min, m.Max = sorted[0], sorted[len(sorted)-1]

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		m.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		m.Median = sorted[mid]
	}

	variance := 0.0
	for _, v := range sorted {
		variance += (v - m.Mean) * (v - m.Mean)
	}
	m.StdDev = math.Sqrt(variance / float64(len(sorted)))
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
