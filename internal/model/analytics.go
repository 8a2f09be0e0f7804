package model

import (
	"encoding/json"
	"fmt"
)

// AnalyticsStatusPending marks per-attempt analytics that are not released yet.
const AnalyticsStatusPending = "pending"

// Ratio is an [obtained, total] pair as sent by the analytics endpoints.
type Ratio struct {
	Obtained float64
	Total    float64
}

// Percent returns obtained/total in percent, or 0 when total is 0.
func (r Ratio) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return r.Obtained / r.Total * 100
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Obtained, r.Total})
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("ratio: want 2 elements, got %d", len(pair))
	}
	r.Obtained, r.Total = pair[0], pair[1]
	return nil
}

// AttemptStats is the per-attempt breakdown by difficulty, type and tag.
type AttemptStats struct {
	Difficulty map[string]Ratio `json:"difficulty"`
	Type       map[string]Ratio `json:"type"`
	Tags       map[string]Ratio `json:"tags"`
}

// AttemptAnalytics is returned by GET /student/quiz_analytics/{attempt_id}.
// While the quiz window is open the backend answers with Status "pending".
type AttemptAnalytics struct {
	Status  string        `json:"status,omitempty"`
	Message string        `json:"message,omitempty"`
	Stats   *AttemptStats `json:"stats,omitempty"`
}

// Pending reports whether the analytics are not yet released.
func (a AttemptAnalytics) Pending() bool {
	return a.Status == AnalyticsStatusPending
}

// Trend is a labelled score series.
type Trend struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// WeakTopic is a tag whose accuracy is below the backend threshold.
type WeakTopic struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
}

// CourseAnalytics is returned by GET /student/course_analytics/{course_id}.
// When the student has no submitted attempts only Message is set.
type CourseAnalytics struct {
	Message        string      `json:"message,omitempty"`
	AvgTimeSeconds float64     `json:"avg_time_seconds"`
	Trend          Trend       `json:"trend"`
	WeakTopics     []WeakTopic `json:"weak_topics"`
}

// Empty reports whether there is no data to show.
func (a CourseAnalytics) Empty() bool {
	return a.Message != "" && len(a.Trend.Labels) == 0
}

// ScoreMetrics are descriptive statistics of a quiz's submitted scores.
type ScoreMetrics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// TopicLoss is a tag ranked by marks lost across all attempts.
type TopicLoss struct {
	Topic     string  `json:"topic"`
	MarksLost float64 `json:"marks_lost"`
}

// QuizAnalytics is returned by GET /teacher/quiz_analytics/{test_id}.
type QuizAnalytics struct {
	Metrics      ScoreMetrics `json:"metrics"`
	TopicRanking []TopicLoss  `json:"topic_ranking"`
}
