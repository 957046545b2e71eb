package mau

import "context"

// PreHook runs right before its query is asked. It may call c.Skip or
// c.Goto to steer resolution, in which case it must return the result
// immediately.
type PreHook func(ctx context.Context, c *Controller) error

// PostHook runs after the user answers its query, with the submitted
// answer. It may call c.Retry, c.Stop or c.Goto, returning the result
// immediately.
type PostHook func(ctx context.Context, c *Controller, answer any) error

// Query is a single step of a form: a prompt plus optional entry and
// completion hooks. Answers are recorded under its name.
type Query struct {
	// Name identifies the query; it must be unique within the form.
	Name string
	// Text is the prompt. Supply either Text or Question.Text.
	Text string
	// Question refines how the prompt is asked.
	Question *Question
	// Pre is the entry hook.
	Pre PreHook
	// Post is the completion hook.
	Post PostHook
}

// Question configures the prompt of a query.
type Question struct {
	// Text is the prompt, used when Query.Text is empty.
	Text string
	// Choices constrains the valid answers.
	Choices []Choice
	// ChoicesFunc produces choices at ask time; it takes precedence
	// over Choices when set.
	ChoicesFunc func(c *Controller) []Choice
	// Strict rejects answers outside the choice ids, re-asking the
	// question. nil means true.
	Strict *bool
	// RetryText replaces the prompt when a strict answer is rejected.
	RetryText string
}

func (q *Question) strict() bool {
	return q.Strict == nil || *q.Strict
}

// Choice is one selectable answer. An empty ID defaults to Text and
// vice versa.
type Choice struct {
	ID   string
	Text string
	// When conditionally includes the choice at ask time.
	When func(c *Controller) bool
}

func (c Choice) normalize() PromptChoice {
	id, text := c.ID, c.Text
	if id == "" {
		id = text
	}
	if text == "" {
		text = id
	}
	return PromptChoice{ID: id, Text: text}
}

// ChoiceList builds choices from bare values, each serving as both id
// and display text.
func ChoiceList(values ...string) []Choice {
	choices := make([]Choice, len(values))
	for i, v := range values {
		choices[i] = Choice{ID: v, Text: v}
	}
	return choices
}

// Bool returns a pointer to b, for Question.Strict.
func Bool(b bool) *bool { return &b }

// Prompt is the outbound question produced by an advance step.
type Prompt struct {
	Text    string         `json:"text"`
	Choices []PromptChoice `json:"choices,omitempty"`
}

// PromptChoice is a normalized choice as presented to the user.
type PromptChoice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
