package session

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/wavechat/api"
	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/logger"
	"github.com/kbukum/wavechat/observability"
	"github.com/kbukum/wavechat/selection"
)

// Backend is the subset of the api client the orchestrator calls.
type Backend interface {
	FetchSpectrogram(ctx context.Context, src audio.Source, startSec, endSec float64) (*api.PreviewResult, error)
	AnalyzeAudio(ctx context.Context, src audio.Source, startSec, endSec float64, params api.AnalysisParams) (*api.AnalysisResult, error)
	SendChatMessage(ctx context.Context, sessionID, message string) (*api.ChatResult, error)
}

var _ Backend = (*api.Client)(nil)

// SelectionReader exposes the current selection.
type SelectionReader interface {
	Current() (selection.Selection, bool)
}

// Selections is the selection state the orchestrator reads and clears when
// the source changes.
type Selections interface {
	SelectionReader
	Clear()
}

// Session is an analysis conversation opened by StartAnalysis.
type Session struct {
	ID        string
	StartedAt time.Time
	Selection selection.Selection
	// Analysis is the analyze response that opened the session.
	Analysis *api.AnalysisResult
}

// Turn is one chat exchange within a session.
type Turn struct {
	Message string
	Reply   string
	At      time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator coordinates backend calls for the current source and
// selection. It is safe for concurrent use; calls are not serialized, so a
// slow analysis does not block a preview.
type Orchestrator struct {
	backend    Backend
	selections Selections
	log        *logger.Logger
	now        func() time.Time

	mu      sync.Mutex
	source  audio.Source
	// generation counts SetSource calls; results of requests issued for an
	// older generation are dropped.
	generation uint64
	session *Session
	history []Turn
}

// New creates an orchestrator.
func New(backend Backend, selections Selections, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:    backend,
		selections: selections,
		log:        logger.WithComponent("session"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetSource sets the audio the next request will upload, ends the current
// session and clears the selection, which belonged to the previous audio.
// An analysis still in flight for the previous audio opens no session.
func (o *Orchestrator) SetSource(src audio.Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.source = src
	o.generation++
	if o.session != nil {
		o.log.Debug("session ended by source change", logger.Fields(logger.FieldSessionID, o.session.ID))
	}
	o.session = nil
	o.history = nil
	o.selections.Clear()
}

// RequestPreview fetches a spectrogram of the current selection.
func (o *Orchestrator) RequestPreview(ctx context.Context) (res *api.PreviewResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPreview)
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()

	src, sel, _, err := o.target(ctx)
	if err != nil {
		return nil, err
	}
	res, err = o.backend.FetchSpectrogram(ctx, src, sel.StartSec, sel.EndSec)
	if err != nil {
		o.log.Warn("preview failed", logger.ErrorFields("preview", err))
		return nil, err
	}
	return res, nil
}

// StartAnalysis analyzes the current selection and opens a new session,
// replacing any previous one. On failure the previous session is kept.
func (o *Orchestrator) StartAnalysis(ctx context.Context, params api.AnalysisParams) (res *api.AnalysisResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAnalyze)
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()
	observability.SetSpanAttribute(ctx, observability.AttrModelID, params.ModelID)
	observability.SetSpanAttribute(ctx, observability.AttrMode, string(params.Mode))

	src, sel, gen, err := o.target(ctx)
	if err != nil {
		return nil, err
	}
	res, err = o.backend.AnalyzeAudio(ctx, src, sel.StartSec, sel.EndSec, params)
	if err != nil {
		o.log.Warn("analysis failed", logger.ErrorFields("analyze", err))
		return nil, err
	}

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		o.log.Info("analysis dropped after source change", logger.Fields(
			logger.FieldSessionID, res.SessionID,
			logger.FieldSource, src.Name(),
		))
		return nil, errors.SourceChanged(src.Name()).WithDetail("session_id", res.SessionID)
	}
	o.session = &Session{
		ID:        res.SessionID,
		StartedAt: o.now(),
		Selection: sel,
		Analysis:  res,
	}
	o.history = nil
	o.mu.Unlock()

	observability.SetSpanAttribute(ctx, observability.AttrSessionID, res.SessionID)
	o.log.Info("analysis session started", logger.Fields(
		logger.FieldSessionID, res.SessionID,
		"selection", sel.String(),
	))
	return res, nil
}

// ContinueChat sends message within the current session and records the
// exchange.
func (o *Orchestrator) ContinueChat(ctx context.Context, message string) (res *api.ChatResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanChat)
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()

	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess == nil {
		return nil, errors.NoActiveSession()
	}
	observability.SetSpanAttribute(ctx, observability.AttrSessionID, sess.ID)
	ctx = logger.ContextWithSessionID(ctx, sess.ID)

	res, err = o.backend.SendChatMessage(ctx, sess.ID, message)
	if err != nil {
		o.log.WithContext(ctx).Warn("chat failed", logger.ErrorFields("chat", err))
		return nil, err
	}

	o.mu.Lock()
	// a newer analysis replaced the session while the reply was in flight
	if o.session == sess {
		o.history = append(o.history, Turn{Message: message, Reply: res.Reply(), At: o.now()})
	}
	o.mu.Unlock()
	return res, nil
}

// Session returns a copy of the current session.
func (o *Orchestrator) Session() (Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return Session{}, false
	}
	return *o.session, true
}

// History returns the chat turns of the current session in order.
func (o *Orchestrator) History() []Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Turn(nil), o.history...)
}

// Reset ends the current session.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.session = nil
	o.history = nil
	o.mu.Unlock()
}

// target returns the source and selection a request should use, along with
// the source generation they belong to.
func (o *Orchestrator) target(ctx context.Context) (audio.Source, selection.Selection, uint64, error) {
	o.mu.Lock()
	src, gen := o.source, o.generation
	sel, ok := o.selections.Current()
	o.mu.Unlock()

	if !ok || src == nil {
		return nil, selection.Selection{}, 0, errors.InvalidSelection("no active selection")
	}
	observability.SetSpanAttribute(ctx, observability.AttrSource, src.Name())
	observability.SetSpanAttribute(ctx, observability.AttrStartSec, sel.StartSec)
	observability.SetSpanAttribute(ctx, observability.AttrEndSec, sel.EndSec)
	observability.SetSpanAttribute(ctx, observability.AttrDuration, sel.DurationSec)
	return src, sel, gen, nil
}
