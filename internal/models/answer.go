package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AnswerMap maps a question ID to the submitted answer set for that question.
// An absent or empty entry means the question is unanswered. Stored as jsonb.
type AnswerMap map[string][]string

func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		m = AnswerMap{}
	}
	return json.Marshal(m)
}

func (m *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*m = AnswerMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for AnswerMap", value)
	}
}

// Clone returns a deep copy so a frozen attempt cannot alias caller slices.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for id, selection := range m {
		cp := make([]string, len(selection))
		copy(cp, selection)
		out[id] = cp
	}
	return out
}
