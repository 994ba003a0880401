package quiz

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tags the question variant.
type Kind string

const (
	MultipleChoice Kind = "MCQ"
	TrueFalse      Kind = "TRUE_FALSE"
)

// Difficulty constants for readability.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Language selects both the processing and explanation language.
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
)

// Question is one quiz item. The correct answer is only reachable through the
// accessor matching Kind, so a caller cannot read the wrong correctness field.
type Question struct {
	ID          string
	Kind        Kind
	Prompt      string
	Options     []string
	Explanation string
	Difficulty  Difficulty

	correctOption int
	correctBool   bool
}

// NewMultipleChoice builds an MCQ question. Options are copied verbatim.
func NewMultipleChoice(id, prompt string, options []string, correct int, explanation string, d Difficulty) Question {
	if options == nil {
		options = []string{}
	}
	return Question{
		ID:            id,
		Kind:          MultipleChoice,
		Prompt:        prompt,
		Options:       options,
		Explanation:   explanation,
		Difficulty:    d,
		correctOption: correct,
	}
}

// NewTrueFalse builds a true/false question.
func NewTrueFalse(id, prompt string, correct bool, explanation string, d Difficulty) Question {
	return Question{
		ID:          id,
		Kind:        TrueFalse,
		Prompt:      prompt,
		Options:     []string{},
		Explanation: explanation,
		Difficulty:  d,
		correctBool: correct,
	}
}

// CorrectOption returns the correct option index. Valid only for MultipleChoice.
func (q Question) CorrectOption() (int, bool) {
	if q.Kind != MultipleChoice {
		return 0, false
	}
	return q.correctOption, true
}

// CorrectBool returns the correct boolean. Valid only for TrueFalse.
func (q Question) CorrectBool() (bool, bool) {
	if q.Kind != TrueFalse {
		return false, false
	}
	return q.correctBool, true
}

// IsCorrect reports whether the submitted answer matches, with strict kind and
// value equality. A zero Answer is never correct.
func (q Question) IsCorrect(a Answer) bool {
	switch q.Kind {
	case MultipleChoice:
		idx, ok := a.Option()
		return ok && idx == q.correctOption
	case TrueFalse:
		b, ok := a.Bool()
		return ok && b == q.correctBool
	}
	return false
}

type questionJSON struct {
	ID            string     `json:"id"`
	Type          Kind       `json:"type"`
	Question      string     `json:"question"`
	Options       []string   `json:"options,omitempty"`
	CorrectIndex  *int       `json:"correctIndex,omitempty"`
	CorrectAnswer *bool      `json:"correctAnswer,omitempty"`
	Explanation   string     `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty"`
}

// MarshalJSON emits only the correctness field matching Kind.
func (q Question) MarshalJSON() ([]byte, error) {
	out := questionJSON{
		ID:          q.ID,
		Type:        q.Kind,
		Question:    q.Prompt,
		Options:     q.Options,
		Explanation: q.Explanation,
		Difficulty:  q.Difficulty,
	}
	switch q.Kind {
	case MultipleChoice:
		idx := q.correctOption
		out.CorrectIndex = &idx
	case TrueFalse:
		b := q.correctBool
		out.CorrectAnswer = &b
	}
	return json.Marshal(out)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Type {
	case TrueFalse:
		correct := in.CorrectAnswer != nil && *in.CorrectAnswer
		*q = NewTrueFalse(in.ID, in.Question, correct, in.Explanation, in.Difficulty)
	default:
		idx := 0
		if in.CorrectIndex != nil {
			idx = *in.CorrectIndex
		}
		*q = NewMultipleChoice(in.ID, in.Question, in.Options, idx, in.Explanation, in.Difficulty)
	}
	return nil
}

// Answer is a submitted answer value: an option index or a boolean, tagged by
// the kind of question it answers.
type Answer struct {
	kind    Kind
	option  int
	boolean bool
}

// OptionAnswer wraps a multiple-choice option index.
func OptionAnswer(i int) Answer {
	return Answer{kind: MultipleChoice, option: i}
}

// BoolAnswer wraps a true/false value.
func BoolAnswer(b bool) Answer {
	return Answer{kind: TrueFalse, boolean: b}
}

// Option returns the index if the answer is an option selection.
func (a Answer) Option() (int, bool) {
	if a.kind != MultipleChoice {
		return 0, false
	}
	return a.option, true
}

// Bool returns the value if the answer is a boolean selection.
func (a Answer) Bool() (bool, bool) {
	if a.kind != TrueFalse {
		return false, false
	}
	return a.boolean, true
}

// IsZero reports whether no answer was recorded.
func (a Answer) IsZero() bool {
	return a.kind == ""
}

// MarshalJSON emits the bare value: a number for option answers, a boolean
// for true/false answers.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case MultipleChoice:
		return json.Marshal(a.option)
	case TrueFalse:
		return json.Marshal(a.boolean)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*a = BoolAnswer(b)
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*a = OptionAnswer(i)
		return nil
	}
	return fmt.Errorf("answer must be an option index or a boolean, got %s", data)
}

// GenerationConfig holds the user-chosen generation parameters.
type GenerationConfig struct {
	MultipleChoiceCount int        `json:"numMcq"`
	TrueFalseCount      int        `json:"numTf"`
	Difficulty          Difficulty `json:"difficulty"`
	Language            Language   `json:"language"`
}

// Clamp coerces negative counts to zero, the parse-failure behavior of the
// numeric inputs at the boundary.
func (c GenerationConfig) Clamp() GenerationConfig {
	if c.MultipleChoiceCount < 0 {
		c.MultipleChoiceCount = 0
	}
	if c.TrueFalseCount < 0 {
		c.TrueFalseCount = 0
	}
	return c
}

// QuestionBank is a generated, persistable question set. Immutable after
// creation; history only ever prepends whole banks.
type QuestionBank struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"createdAt"`
	TitleSummary string           `json:"title"`
	Questions    []Question       `json:"questions"`
	Config       GenerationConfig `json:"config"`
}

const titleSummaryRunes = 50

// NewBank derives a bank from the source text and the normalized questions.
func NewBank(sourceText string, questions []Question, cfg GenerationConfig, now time.Time) QuestionBank {
	title := strings.ReplaceAll(sourceText, "\n", " ")
	if runes := []rune(title); len(runes) > titleSummaryRunes {
		title = string(runes[:titleSummaryRunes])
	}
	return QuestionBank{
		ID:           "bank-" + uuid.NewString(),
		CreatedAt:    now,
		TitleSummary: title + "...",
		Questions:    questions,
		Config:       cfg,
	}
}
