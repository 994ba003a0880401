package quiz

import (
	"encoding/json"
	"fmt"
	"time"
)

// rawQuestion mirrors the loosely-typed records the generation service emits.
// Any of the correctness fields may be absent or mislabeled.
type rawQuestion struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectIndex  *int     `json:"correctIndex"`
	CorrectAnswer *bool    `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// Normalize converts the raw generated payload into strict Questions.
//
// A record is TrueFalse when its type tag says so OR when it carries a boolean
// correctness value, which tolerates a service that mislabels the tag but still
// supplies the boolean. IDs combine the record position with a wall-clock stamp
// shared across the call. Difficulty always comes from cfg, never from the
// record. Malformed JSON is a hard error; a well-formed empty array is not.
func Normalize(raw []byte, cfg GenerationConfig, now time.Time) ([]Question, error) {
	var records []rawQuestion
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode generated questions: %w", err)
	}

	stamp := now.UnixMilli()
	questions := make([]Question, 0, len(records))
	for i, rec := range records {
		id := fmt.Sprintf("q-%d-%d", i, stamp)
		if rec.Type == string(TrueFalse) || rec.CorrectAnswer != nil {
			correct := rec.CorrectAnswer != nil && *rec.CorrectAnswer
			questions = append(questions, NewTrueFalse(id, rec.Question, correct, rec.Explanation, cfg.Difficulty))
			continue
		}
		idx := 0
		if rec.CorrectIndex != nil {
			idx = *rec.CorrectIndex
		}
		questions = append(questions, NewMultipleChoice(id, rec.Question, rec.Options, idx, rec.Explanation, cfg.Difficulty))
	}
	return questions, nil
}
