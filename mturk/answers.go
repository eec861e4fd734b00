package mturk

import (
	"encoding/json"
	"encoding/xml"
)

// AnswerError reports an answer document that could not be decoded.
type AnswerError struct {
	Err error
}

func (e *AnswerError) Error() string { return "larry: decode answer: " + e.Err.Error() }

func (e *AnswerError) Unwrap() error { return e.Err }

type questionFormAnswers struct {
	XMLName xml.Name     `xml:"QuestionFormAnswers"`
	Answers []formAnswer `xml:"Answer"`
}

type formAnswer struct {
	QuestionIdentifier   string   `xml:"QuestionIdentifier"`
	FreeText             *string  `xml:"FreeText"`
	SelectionIdentifiers []string `xml:"SelectionIdentifier"`
	OtherSelection       *string  `xml:"OtherSelection"`
}

// ParseAnswers decodes a QuestionFormAnswers XML document into a map keyed
// by question identifier. Free-text values that hold valid JSON are decoded
// into their structured form; selection questions produce a list of the
// chosen identifiers. Answers submitted through a crowd-form element arrive
// as a single taskAnswers JSON blob, which is unwrapped and flattened.
// File-upload answers are not supported.
func ParseAnswers(answer string) (map[string]any, error) {
	var doc questionFormAnswers
	if err := xml.Unmarshal([]byte(answer), &doc); err != nil {
		return nil, &AnswerError{Err: err}
	}

	result := make(map[string]any)

	if len(doc.Answers) == 1 && doc.Answers[0].QuestionIdentifier == "taskAnswers" && doc.Answers[0].FreeText != nil {
		return parseCrowdForm(*doc.Answers[0].FreeText)
	}

	for _, a := range doc.Answers {
		if a.FreeText != nil {
			result[a.QuestionIdentifier] = parseMaybeJSON(*a.FreeText)
			continue
		}
		selections := make([]string, 0, len(a.SelectionIdentifiers)+1)
		selections = append(selections, a.SelectionIdentifiers...)
		if a.OtherSelection != nil {
			selections = append(selections, *a.OtherSelection)
		}
		result[a.QuestionIdentifier] = selections
	}
	return result, nil
}

// parseCrowdForm unwraps the taskAnswers JSON document the crowd-form
// element produces. The submission arrives wrapped in a single-element
// list, which is flattened into the result.
func parseCrowdForm(freeText string) (map[string]any, error) {
	var body any
	if err := json.Unmarshal([]byte(freeText), &body); err != nil {
		return nil, &AnswerError{Err: err}
	}

	if list, ok := body.([]any); ok && len(list) == 1 {
		if fields, ok := list[0].(map[string]any); ok {
			result := make(map[string]any, len(fields))
			for key, value := range fields {
				if s, ok := value.(string); ok {
					result[key] = parseMaybeJSON(s)
				} else {
					result[key] = value
				}
			}
			return result, nil
		}
	}
	return map[string]any{"taskAnswers": body}, nil
}

// parseMaybeJSON decodes values that workers submitted as serialized JSON,
// leaving anything else as the original string.
func parseMaybeJSON(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
