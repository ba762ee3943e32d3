package assessment

import (
	"sort"
	"strings"
	"time"
)

// Kind identifies the exercise a session runs.
type Kind string

const (
	KindQuiz         Kind = "multiple_choice_quiz"
	KindPracticeExam Kind = "practice_exam"
	KindScenario     Kind = "scenario"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindQuiz, KindPracticeExam, KindScenario:
		return true
	}
	return false
}

// IsChoice reports whether k is graded locally by answer-set comparison.
func (k Kind) IsChoice() bool {
	return k == KindQuiz || k == KindPracticeExam
}

// AnswerSet is an unordered set of option values.
type AnswerSet map[string]struct{}

// NewAnswerSet builds a set from values, ignoring blanks and duplicates.
func NewAnswerSet(values ...string) AnswerSet {
	s := make(AnswerSet, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

// Equal reports set equality: same size, same members.
func (s AnswerSet) Equal(other AnswerSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// Values returns the members in sorted order.
func (s AnswerSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Question is either a ChoiceQuestion or a ScenarioQuestion.
type Question interface {
	QuestionID() string
	question()
}

// ChoiceQuestion is a multiple-choice item with one or more correct options.
type ChoiceQuestion struct {
	ID          string
	Prompt      string
	Options     []string
	Correct     AnswerSet
	Explanation string
	Reference   string
	Category    string
	Difficulty  string
}

func (q ChoiceQuestion) QuestionID() string { return q.ID }
func (ChoiceQuestion) question()            {}

// MultiSelect reports whether more than one option must be chosen.
func (q ChoiceQuestion) MultiSelect() bool { return len(q.Correct) > 1 }

// ScenarioQuestion is a free-response item graded by an external service.
type ScenarioQuestion struct {
	ID          string
	Title       string
	Content     string
	ModelAnswer string
	StudyTip    string
	Reference   string
	Category    string
	Difficulty  string
	// TimeLimit overrides the default scenario duration when positive.
	TimeLimit time.Duration
}

func (q ScenarioQuestion) QuestionID() string { return q.ID }
func (ScenarioQuestion) question()            {}

// Answer is either a ChoiceAnswer or a ScenarioAnswer.
type Answer interface {
	answer()
}

// ChoiceAnswer is the selected option set for a ChoiceQuestion.
type ChoiceAnswer struct {
	Selected AnswerSet
}

func (ChoiceAnswer) answer() {}

// ScenarioAnswer is the free-text response to a ScenarioQuestion.
type ScenarioAnswer struct {
	Text string
}

func (ScenarioAnswer) answer() {}
