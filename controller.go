package mau

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forfuturellc/mau/logger"
)

// hookPhase marks which hook the controller is currently executing. It
// gates which control operations are legal.
type hookPhase int

const (
	phaseIdle hookPhase = iota
	phasePre
	phasePost
)

type transitionKind int

const (
	transNone transitionKind = iota
	transSkip
	transGoto
	transRetry
	transStop
)

// pendingTransition records the control transfer requested by a hook.
// Skip and goto requests are consumed once per resolution step; retry
// and stop once per advance call.
type pendingTransition struct {
	kind   transitionKind
	target string // goto
	text   string // retry
}

// errControl is returned by control operations. Hooks must return it
// immediately so the engine regains control; it never escapes advance.
var errControl = errors.New("mau: control transfer")

// Controller is the query-advancement state machine. One controller is
// bound to a (form, session, ref) triple for the duration of a single
// processing call; hooks receive it to inspect answers and steer
// resolution.
type Controller struct {
	formset *FormSet
	form    *Form
	session *Session
	ref     any

	index   int
	phase   hookPhase
	pending pendingTransition
	// textOverride is set via SetText and takes priority over every
	// other prompt text source.
	textOverride string
}

// newController positions a controller against the session. A session
// query name missing from the form is a QueryNotFoundError.
func newController(formset *FormSet, form *Form, session *Session, ref any) (*Controller, error) {
	c := &Controller{
		formset: formset,
		form:    form,
		session: session,
		ref:     ref,
		index:   -1,
	}
	if session.Query != "" {
		idx := form.queryIndex(session.Query)
		if idx < 0 {
			return nil, newError(QueryNotFoundErrorCode,
				"session query %q not in form %q", session.Query, form.Name)
		}
		c.index = idx
	}
	return c, nil
}

// Form returns the form being processed.
func (c *Controller) Form() *Form { return c.form }

// Session returns the session being mutated.
func (c *Controller) Session() *Session { return c.session }

// Ref returns the external reference for this processing call.
func (c *Controller) Ref() any { return c.ref }

// CurrentQuery returns the query the controller is positioned at, or
// nil before the first question or past the end of the form.
func (c *Controller) CurrentQuery() *Query {
	if c.index < 0 || c.index >= len(c.form.Queries) {
		return nil
	}
	return &c.form.Queries[c.index]
}

func (c *Controller) resolveName(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	q := c.CurrentQuery()
	if q == nil {
		return "", newError(QueryNotFoundErrorCode, "no current query in form %q", c.form.Name)
	}
	return q.Name, nil
}

// Answers returns all recorded answers; nil if none have been recorded.
func (c *Controller) Answers() map[string]any {
	return c.session.Answers
}

// GetAnswer returns the answer recorded under name, or nil if unset. An
// empty name refers to the current query; a QueryNotFoundError is
// returned if the controller is not positioned at one.
func (c *Controller) GetAnswer(name string) (any, error) {
	name, err := c.resolveName(name)
	if err != nil {
		return nil, err
	}
	return c.session.Answers[name], nil
}

// SetAnswer records value under name. An empty name refers to the
// current query.
func (c *Controller) SetAnswer(name string, value any) error {
	name, err := c.resolveName(name)
	if err != nil {
		return err
	}
	c.session.setAnswer(name, value)
	return nil
}

// UnsetAnswer removes the answer recorded under name. An empty name
// refers to the current query.
func (c *Controller) UnsetAnswer(name string) error {
	name, err := c.resolveName(name)
	if err != nil {
		return err
	}
	delete(c.session.Answers, name)
	return nil
}

// Skip marks the query about to be asked as skipped; resolution moves
// on to the following query. Legal only in pre hooks; the hook must
// return the result immediately.
func (c *Controller) Skip() error {
	if c.phase != phasePre {
		panic("mau: Skip called outside a pre hook")
	}
	c.pending = pendingTransition{kind: transSkip}
	return errControl
}

// Goto requests resolution jump to the named query. Legal in pre and
// post hooks; the hook must return the result immediately.
func (c *Controller) Goto(name string) error {
	if c.phase != phasePre && c.phase != phasePost {
		panic("mau: Goto called outside a hook")
	}
	c.pending = pendingTransition{kind: transGoto, target: name}
	return errControl
}

// Retry re-asks the current query instead of advancing. text overrides
// the prompt for this round; empty text falls back to the previously
// resolved prompt. Legal only in post hooks; the hook must return the
// result immediately.
func (c *Controller) Retry(text string) error {
	if c.phase != phasePost {
		panic("mau: Retry called outside a post hook")
	}
	if text == "" {
		text = c.session.Text
	}
	c.pending = pendingTransition{kind: transRetry, text: text}
	return errControl
}

// Stop aborts resolution; no further query is asked and the caller
// discards the session. Legal only in post hooks; the hook must return
// the result immediately.
func (c *Controller) Stop() error {
	if c.phase != phasePost {
		panic("mau: Stop called outside a post hook")
	}
	c.pending = pendingTransition{kind: transStop}
	return errControl
}

// SetText overrides the outgoing prompt text for this advance call.
func (c *Controller) SetText(text string) {
	c.textOverride = text
}

// Text returns the internationalized form of id, with vars available
// for interpolation. An I18nError is returned if the form has no i18n
// function configured.
func (c *Controller) Text(ctx context.Context, id string, vars map[string]any) (string, error) {
	if c.form.Options.I18n == nil {
		return "", newError(I18nErrorCode, "form %q has no i18n function configured", c.form.Name)
	}
	return c.form.Options.I18n(ctx, id, vars, c.ref)
}

// Send delivers an out-of-band message to the chat, outside the
// question flow. The text is internationalized when the form has an
// i18n function, then handed to the formset's message subscribers.
func (c *Controller) Send(ctx context.Context, text string) error {
	if i18n := c.form.Options.I18n; i18n != nil {
		translated, err := i18n(ctx, text, c.session.Answers, c.ref)
		if err != nil {
			return wrapError(I18nErrorCode, err, "translate %q", text)
		}
		text = translated
	}
	c.formset.emitMessage(text, c.ref)
	return nil
}

// advance performs one step: validate and record the answer, run the
// current query's post hook, resolve the next query through its pre
// hook, and build the outbound prompt. A nil prompt means the form has
// no further query and the caller should discard the session.
func (c *Controller) advance(ctx context.Context, answer any) (*Prompt, error) {
	current := c.CurrentQuery()
	if current == nil {
		if answer != nil {
			return nil, newError(SessionErrorCode,
				"unexpected answer before first query of form %q", c.form.Name)
		}
		if c.session.Choices != nil {
			return nil, newError(SessionErrorCode,
				"session carries choices but no current query in form %q", c.form.Name)
		}
	} else {
		if answer == nil {
			return nil, newError(SessionErrorCode, "answer required for query %q", current.Name)
		}
		if c.session.Choices != nil && !isValidChoice(c.session.Choices, answer) {
			// Automatic retry; the post hook is not consulted.
			text := c.session.Text
			if current.Question != nil && current.Question.RetryText != "" {
				text = current.Question.RetryText
			}
			c.pending = pendingTransition{kind: transRetry, text: text}
			logger.Debug(ctx, "mau.controller", "answer.rejected",
				slog.String("form", c.form.Name),
				slog.String("query", current.Name),
			)
		} else {
			c.session.setAnswer(current.Name, answer)
			if current.Post != nil {
				if err := c.runPost(ctx, current, answer); err != nil {
					return nil, err
				}
			}
		}
	}

	next := current
	var retryText string
	switch c.pending.kind {
	case transRetry:
		retryText = c.pending.text
		c.pending = pendingTransition{}
	case transStop:
		c.pending = pendingTransition{}
		logger.Debug(ctx, "mau.controller", "form.stopped",
			slog.String("form", c.form.Name),
		)
		return nil, nil
	default:
		var err error
		next, err = c.resolveNext(ctx)
		if err != nil {
			return nil, err
		}
		if next == nil {
			logger.Debug(ctx, "mau.controller", "form.complete",
				slog.String("form", c.form.Name),
			)
			return nil, nil
		}
	}

	return c.buildPrompt(ctx, next, retryText)
}

// resolveNext advances the position, honoring goto and skip requests
// from entry hooks, until a query can be asked or the form is
// exhausted.
func (c *Controller) resolveNext(ctx context.Context) (*Query, error) {
	for {
		if c.pending.kind == transGoto {
			idx := c.form.queryIndex(c.pending.target)
			if idx < 0 {
				return nil, newError(QueryNotFoundErrorCode,
					"goto: no query %q in form %q", c.pending.target, c.form.Name)
			}
			c.index = idx
		} else {
			c.index++
		}
		c.pending = pendingTransition{}
		if c.index >= len(c.form.Queries) {
			return nil, nil
		}
		q := &c.form.Queries[c.index]
		if q.Pre != nil {
			if err := c.runPre(ctx, q); err != nil {
				return nil, err
			}
		}
		if c.pending.kind == transSkip || c.pending.kind == transGoto {
			continue
		}
		return q, nil
	}
}

// buildPrompt composes the outbound question for q and refreshes the
// session's position fields. retryText, when set, replaces the prompt
// for this round only.
func (c *Controller) buildPrompt(ctx context.Context, q *Query, retryText string) (*Prompt, error) {
	text := c.textOverride
	if text == "" {
		text = retryText
	}
	if text == "" {
		text = q.Text
	}
	if text == "" && q.Question != nil {
		text = q.Question.Text
	}

	choices, ids := c.resolveChoices(q)

	c.session.Query = q.Name
	c.session.Text = text
	strict := q.Question == nil || q.Question.strict()
	if strict && len(ids) > 0 {
		c.session.Choices = ids
	} else {
		c.session.Choices = nil
	}

	if i18n := c.form.Options.I18n; i18n != nil {
		translated, err := i18n(ctx, text, c.session.Answers, c.ref)
		if err != nil {
			return nil, wrapError(I18nErrorCode, err, "translate %q", text)
		}
		text = translated
		for i := range choices {
			translated, err := i18n(ctx, choices[i].Text, c.session.Answers, c.ref)
			if err != nil {
				return nil, wrapError(I18nErrorCode, err, "translate %q", choices[i].Text)
			}
			choices[i].Text = translated
		}
	}

	logger.Debug(ctx, "mau.controller", "query.resolved",
		slog.String("form", c.form.Name),
		slog.String("query", q.Name),
		slog.Int("choices", len(choices)),
	)
	return &Prompt{Text: text, Choices: choices}, nil
}

// resolveChoices evaluates and normalizes the choices of q, returning
// them alongside their ids. Both are nil when no choice remains.
func (c *Controller) resolveChoices(q *Query) ([]PromptChoice, []string) {
	if q.Question == nil {
		return nil, nil
	}
	list := q.Question.Choices
	if q.Question.ChoicesFunc != nil {
		list = q.Question.ChoicesFunc(c)
	}
	if len(list) == 0 {
		return nil, nil
	}
	choices := make([]PromptChoice, 0, len(list))
	ids := make([]string, 0, len(list))
	for _, choice := range list {
		if choice.When != nil && !choice.When(c) {
			continue
		}
		normalized := choice.normalize()
		choices = append(choices, normalized)
		ids = append(ids, normalized.ID)
	}
	if len(choices) == 0 {
		return nil, nil
	}
	return choices, ids
}

func (c *Controller) runPre(ctx context.Context, q *Query) error {
	c.phase = phasePre
	err := q.Pre(ctx, c)
	c.phase = phaseIdle
	if err != nil && !errors.Is(err, errControl) {
		return fmt.Errorf("pre hook of query %q: %w", q.Name, err)
	}
	return nil
}

func (c *Controller) runPost(ctx context.Context, q *Query, answer any) error {
	c.phase = phasePost
	err := q.Post(ctx, c, answer)
	c.phase = phaseIdle
	if err != nil && !errors.Is(err, errControl) {
		return fmt.Errorf("post hook of query %q: %w", q.Name, err)
	}
	return nil
}

func isValidChoice(ids []string, answer any) bool {
	s, ok := answer.(string)
	if !ok {
		s = fmt.Sprint(answer)
	}
	for _, id := range ids {
		if id == s {
			return true
		}
	}
	return false
}
