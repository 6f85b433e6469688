package models

import (
	"encoding/json"
	"fmt"
)

// SubmittedAnswer normalizes the two wire shapes clients send: a single
// option id for single-answer questions, or an array of option ids for
// multiple-answer questions. An absent/null answer (timer auto-submit) is
// the empty form and is scored as wholly wrong.
type SubmittedAnswer struct {
	Multiple bool
	Selected []string
}

func SingleAnswer(optionID string) SubmittedAnswer {
	return SubmittedAnswer{Selected: []string{optionID}}
}

func MultipleAnswer(optionIDs ...string) SubmittedAnswer {
	return SubmittedAnswer{Multiple: true, Selected: optionIDs}
}

func (a SubmittedAnswer) IsEmpty() bool {
	return len(a.Selected) == 0
}

func (a *SubmittedAnswer) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*a = SubmittedAnswer{}
			return nil
		}
		*a = SingleAnswer(single)
		return nil
	}

	var multiple []string
	if err := json.Unmarshal(data, &multiple); err == nil {
		*a = MultipleAnswer(multiple...)
		return nil
	}

	var null any
	if err := json.Unmarshal(data, &null); err == nil && null == nil {
		*a = SubmittedAnswer{}
		return nil
	}

	return fmt.Errorf("answer must be an option id or an array of option ids")
}

func (a SubmittedAnswer) MarshalJSON() ([]byte, error) {
	if a.Multiple {
		return json.Marshal(a.Selected)
	}
	if len(a.Selected) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(a.Selected[0])
}
