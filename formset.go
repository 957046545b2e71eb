package mau

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forfuturellc/mau/logger"
	"github.com/forfuturellc/mau/store"
)

// DefaultPrefix is prepended to chat ids to build session keys.
const DefaultPrefix = "form:"

// QueryHandler receives each produced prompt, after the session has
// been persisted.
type QueryHandler func(prompt *Prompt, ref any)

// MessageHandler receives out-of-band sends from Controller.Send.
type MessageHandler func(text string, ref any)

// RefFunc may be passed as the ref argument of Process/ProcessForm; it
// is invoked once per call, after the form is known, to construct the
// actual reference.
type RefFunc func(formName string, form *Form) any

// FormSetOptions configure a FormSet. The zero value selects an
// in-process memory store, the default key prefix and non-expiring
// sessions.
type FormSetOptions struct {
	// Store holds sessions between messages. nil selects a new memory
	// store, which does not survive restarts and is not shared across
	// instances.
	Store store.Store
	// Prefix namespaces session keys; empty means DefaultPrefix.
	Prefix string
	// TTL bounds how long an idle session survives. Zero keeps
	// sessions indefinitely.
	TTL time.Duration
}

// FormSet is the single entry point the application calls per inbound
// message. It routes the message to the chat's in-progress form,
// persists the session update and emits the produced question to
// subscribers. At most one form runs per chat id at a time.
type FormSet struct {
	opts FormSetOptions

	mu              sync.RWMutex
	forms           []*Form
	queryHandlers   []QueryHandler
	messageHandlers []MessageHandler
}

// NewFormSet constructs a FormSet. A zero-value options struct is
// valid.
func NewFormSet(opts FormSetOptions) *FormSet {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &FormSet{opts: opts}
}

// Store returns the session store in use. Adapters may share it for
// their own bookkeeping under distinct key prefixes.
func (fs *FormSet) Store() store.Store { return fs.opts.Store }

func (fs *FormSet) sid(chatID string) string {
	return fs.opts.Prefix + chatID
}

// AddForm registers a form under a unique name and returns it.
func (fs *FormSet) AddForm(name string, queries []Query, opts FormOptions) *Form {
	form := &Form{Name: name, Queries: queries, Options: opts}
	fs.mu.Lock()
	fs.forms = append(fs.forms, form)
	fs.mu.Unlock()
	return form
}

// Forms returns the registered forms.
func (fs *FormSet) Forms() []*Form {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	forms := make([]*Form, len(fs.forms))
	copy(forms, fs.forms)
	return forms
}

func (fs *FormSet) formByName(name string) *Form {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	for _, form := range fs.forms {
		if form.Name == name {
			return form
		}
	}
	return nil
}

// OnQuery subscribes to produced questions. Handlers run synchronously
// within the process call, after persistence.
func (fs *FormSet) OnQuery(h QueryHandler) {
	fs.mu.Lock()
	fs.queryHandlers = append(fs.queryHandlers, h)
	fs.mu.Unlock()
}

// OnMessage subscribes to out-of-band sends issued via Controller.Send.
func (fs *FormSet) OnMessage(h MessageHandler) {
	fs.mu.Lock()
	fs.messageHandlers = append(fs.messageHandlers, h)
	fs.mu.Unlock()
}

func (fs *FormSet) emitQuery(prompt *Prompt, ref any) {
	fs.mu.RLock()
	handlers := make([]QueryHandler, len(fs.queryHandlers))
	copy(handlers, fs.queryHandlers)
	fs.mu.RUnlock()
	for _, h := range handlers {
		h(prompt, ref)
	}
}

func (fs *FormSet) emitMessage(text string, ref any) {
	fs.mu.RLock()
	handlers := make([]MessageHandler, len(fs.messageHandlers))
	copy(handlers, fs.messageHandlers)
	fs.mu.RUnlock()
	for _, h := range handlers {
		h(text, ref)
	}
}

// Process routes an incoming message to the form in progress for the
// chat. A FormNotFoundError signals there is no active form (or its
// form is no longer registered); applications typically catch it to
// start one via ProcessForm.
func (fs *FormSet) Process(ctx context.Context, chatID, text string, ref any) error {
	return fs.process(ctx, chatID, text, nil, nil, ref)
}

// ProcessFormOptions tune ProcessForm.
type ProcessFormOptions struct {
	// Answers seeds the new session's answer set.
	Answers map[string]any
}

// ProcessForm explicitly starts the named form for the chat. A
// BusyError is returned if a session already exists for the chat; a
// FormNotFoundError if the form is not registered.
func (fs *FormSet) ProcessForm(ctx context.Context, name, chatID string, ref any, opts ...ProcessFormOptions) error {
	form := fs.formByName(name)
	if form == nil {
		return newError(FormNotFoundErrorCode, "%s: form not found", name)
	}
	var answers map[string]any
	if len(opts) > 0 {
		answers = opts[0].Answers
	}
	return fs.process(ctx, chatID, nil, form, answers, ref)
}

// Cancel deletes any session for the chat, reporting whether one
// existed.
func (fs *FormSet) Cancel(ctx context.Context, chatID string) (bool, error) {
	sid := fs.sid(chatID)
	removed, err := fs.opts.Store.Del(ctx, sid)
	if err != nil {
		return false, wrapError(SessionErrorCode, err, "delete session %s", sid)
	}
	logger.Debug(ctx, "mau.formset", "session.cancel",
		slog.String("sid", sid),
		slog.Bool("removed", removed),
	)
	return removed, nil
}

// process is the single load-compute-store cycle behind Process and
// ProcessForm. explicit is non-nil when a form was requested by name;
// answer is nil for the first invocation of a fresh session.
func (fs *FormSet) process(ctx context.Context, chatID string, answer any, explicit *Form, seed map[string]any, ref any) error {
	sid := fs.sid(chatID)
	session, err := fs.loadSession(ctx, sid)
	if err != nil {
		return err
	}

	if session != nil && explicit != nil {
		return newError(BusyErrorCode,
			"chat %s is already processing form %q", chatID, session.Form)
	}
	form := explicit
	if form == nil {
		if session == nil {
			return newError(FormNotFoundErrorCode, "no active form for chat %s", chatID)
		}
		form = fs.formByName(session.Form)
		if form == nil {
			return newError(FormNotFoundErrorCode,
				"%s: form referenced by session not found", session.Form)
		}
	}
	if session == nil {
		session = newSession(chatID, form, seed)
	}
	if thunk, ok := ref.(RefFunc); ok {
		ref = thunk(form.Name, form)
	}

	prompt, err := form.process(ctx, fs, session, answer, ref)
	if err != nil {
		return err
	}

	if prompt == nil {
		if _, err := fs.opts.Store.Del(ctx, sid); err != nil {
			return wrapError(SessionErrorCode, err, "delete session %s", sid)
		}
		logger.Debug(ctx, "mau.formset", "session.delete",
			slog.String("sid", sid),
			slog.String("form", form.Name),
		)
		if cb := form.Options.Complete; cb != nil {
			return cb(ctx, session.Answers, ref)
		}
		return nil
	}

	data, err := session.encode()
	if err != nil {
		return err
	}
	if err := fs.opts.Store.Put(ctx, sid, data, fs.opts.TTL); err != nil {
		return wrapError(SessionErrorCode, err, "save session %s", sid)
	}
	logger.Debug(ctx, "mau.formset", "session.save",
		slog.String("sid", sid),
		slog.String("form", form.Name),
		slog.String("query", session.Query),
	)
	fs.emitQuery(prompt, ref)
	return nil
}

func (fs *FormSet) loadSession(ctx context.Context, sid string) (*Session, error) {
	data, found, err := fs.opts.Store.Get(ctx, sid)
	if err != nil {
		return nil, wrapError(SessionErrorCode, err, "load session %s", sid)
	}
	if !found {
		return nil, nil
	}
	return decodeSession(data)
}
