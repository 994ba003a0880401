package quiz

import "math"

// Result holds correctness counts for one attempt.
// Correct + Incorrect == Total always holds.
type Result struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Total     int `json:"total"`
}

// Percent returns the rounded success percentage, 0 for an empty set.
func (r Result) Percent() int {
	if r.Total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(r.Correct) / float64(r.Total)))
}

// Score counts correct and incorrect answers. A missing answer counts as
// incorrect; keys in answers that match no question are ignored.
func Score(questions []Question, answers map[string]Answer) Result {
	res := Result{Total: len(questions)}
	for _, q := range questions {
		if q.IsCorrect(answers[q.ID]) {
			res.Correct++
		} else {
			res.Incorrect++
		}
	}
	return res
}
