package mau

import "encoding/json"

// SessionVersion is the schema version of persisted sessions. A stored
// session carrying a different version cannot be resumed.
const SessionVersion = 0

// Session is the persisted progress record of one form run. It is
// created by the FormSet, mutated by the controller's advance step, and
// deleted when the form completes or is canceled. Applications should
// treat it as opaque beyond round-tripping it through a store.
type Session struct {
	Version int    `json:"version"`
	ChatID  string `json:"chatID"`
	Form    string `json:"form"`
	// Query names the current (last asked) query; empty before the
	// first question.
	Query string `json:"query,omitempty"`
	// Text is the last resolved prompt text, used as the retry default.
	Text string `json:"text,omitempty"`
	// Choices, when set, is the exhaustive set of valid answer ids for
	// the pending question.
	Choices []string `json:"choices,omitempty"`
	// Answers maps query names to submitted values.
	Answers map[string]any `json:"answers,omitempty"`
}

func newSession(chatID string, form *Form, answers map[string]any) *Session {
	return &Session{
		Version: SessionVersion,
		ChatID:  chatID,
		Form:    form.Name,
		Answers: answers,
	}
}

func decodeSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, wrapError(SessionErrorCode, err, "decode session")
	}
	if s.Version != SessionVersion {
		return nil, newError(SessionErrorCode,
			"incompatible session version %d (engine uses %d)", s.Version, SessionVersion)
	}
	return &s, nil
}

func (s *Session) encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, wrapError(SessionErrorCode, err, "encode session")
	}
	return data, nil
}

func (s *Session) setAnswer(name string, value any) {
	if s.Answers == nil {
		s.Answers = make(map[string]any)
	}
	s.Answers[name] = value
}
