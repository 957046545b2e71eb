package mau

import "context"

// CompleteFunc is invoked with the final answer set when a form
// finishes, either by exhausting its queries or by a hook calling Stop.
type CompleteFunc func(ctx context.Context, answers map[string]any, ref any) error

// I18nFunc translates id. vars carries the current answers for
// interpolation; ref is the external reference of the processing call.
type I18nFunc func(ctx context.Context, id string, vars map[string]any, ref any) (string, error)

// FormOptions configure a form's completion callback and text lookup.
type FormOptions struct {
	Complete CompleteFunc
	I18n     I18nFunc
}

// Form is a named, ordered sequence of queries. It is immutable after
// registration; mutating Queries is supported for tests and
// administrative tooling only.
type Form struct {
	Name    string
	Queries []Query
	Options FormOptions
}

func (f *Form) queryIndex(name string) int {
	for i := range f.Queries {
		if f.Queries[i].Name == name {
			return i
		}
	}
	return -1
}

// process binds a fresh controller to the session and advances one
// step. answer is nil on the first invocation for a fresh session.
func (f *Form) process(ctx context.Context, formset *FormSet, session *Session, answer any, ref any) (*Prompt, error) {
	c, err := newController(formset, f, session, ref)
	if err != nil {
		return nil, err
	}
	return c.advance(ctx, answer)
}
