// Package panel holds the TTL status panel controller: the presentation
// state, the operations that change it, and the capabilities a host
// supplies to it.
package panel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"ttlpanel/internal/backend"
	"ttlpanel/internal/config"
	apperrors "ttlpanel/internal/errors"
	"ttlpanel/internal/journal"
	"ttlpanel/internal/validation"
)

// UnknownTTL marks a TTL that has not been read yet
const UnknownTTL = -1

// Operation names as they appear in logs and the journal
const (
	OpRefresh        = "refresh"
	OpSetFixed       = "set_fixed"
	OpSetCustom      = "set_custom"
	OpSetPersistence = "set_persistence"
)

// User-facing notification texts
const (
	MsgRefreshFailed      = "Failed to get current TTL value"
	MsgInvalidCustom      = "TTL must be a whole number between 32 and 128"
	MsgPersistenceFailed  = "Failed to change TTL persistence setting"
	MsgPersistenceUnknown = "Current TTL is unknown - refresh before making it persistent"
)

// ErrChangeInFlight matches the error returned when a fixed or custom
// change is attempted while another one is still outstanding.
var ErrChangeInFlight = apperrors.ErrBusy

// Snapshot is a copy of the panel state
type Snapshot struct {
	CurrentTTL    int
	IsLoading     bool
	IsPersistent  bool
	PersistentTTL *int // nil unless IsPersistent
	IsChanging    bool
	CustomTTLText string
	ShowAdvanced  bool
}

// Known reports whether CurrentTTL holds a value read from the backend
func (s Snapshot) Known() bool {
	return s.CurrentTTL != UnknownTTL
}

// Controller mediates between user intent and the TTL backend. All state
// lives behind mu; operations block on the backend and are safe to call
// from any goroutine.
type Controller struct {
	svc      backend.Service
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger

	mu    sync.Mutex
	state Snapshot
	loads int
}

// Option configures a Controller
type Option func(*Controller)

// WithRecorder journals every completed mutating operation
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller in the mount state: TTL unknown,
// no persistence rule, nothing in flight.
func NewController(svc backend.Service, notifier Notifier, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		notifier: notifier,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    Snapshot{CurrentTTL: UnknownTTL},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state
	if s.PersistentTTL != nil {
		v := *s.PersistentTTL
		s.PersistentTTL = &v
	}
	return s
}

// Refresh reads the current TTL and the persistence rule concurrently.
// Both are committed together, or neither is when either read fails.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loads++
	c.state.IsLoading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loads--
		c.state.IsLoading = c.loads > 0
		c.mu.Unlock()
	}()

	var (
		ttl    int
		status backend.PersistenceStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.svc.GetCurrentTTL(gctx)
		if err != nil {
			return classify(err, backend.ProcGetCurrentTTL)
		}
		if v < 0 {
			return apperrors.Rejected(backend.ProcGetCurrentTTL)
		}
		ttl = v
		return nil
	})
	g.Go(func() error {
		s, err := c.svc.GetPersistentTTL(gctx)
		if err != nil {
			return classify(err, backend.ProcGetPersistentTTL)
		}
		status = s
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logFailure(OpRefresh, err)
		c.notifier.Notify(TitleError, MsgRefreshFailed)
		return err
	}

	c.mu.Lock()
	c.state.CurrentTTL = ttl
	c.state.IsPersistent = status.IsPersistent
	c.state.PersistentTTL = nil
	if status.IsPersistent && status.TTLValue != nil {
		v := *status.TTLValue
		c.state.PersistentTTL = &v
	}
	c.mu.Unlock()

	c.logger.Debug("TTL status refreshed", "ttl", ttl, "persistent", status.IsPersistent)
	return nil
}

// SetFixed changes the TTL to one of the two preset values: 65 or the
// default 64.
func (c *Controller) SetFixed(ctx context.Context, target int) error {
	switch target {
	case config.PresetTTL:
		return c.change(ctx, OpSetFixed, backend.ProcSetTTLTo65, target,
			c.svc.SetTTLTo65,
			"TTL changed to 65 successfully!",
			"Failed to change TTL to 65")
	case config.DefaultTTL:
		return c.change(ctx, OpSetFixed, backend.ProcResetTTLToDefault, target,
			c.svc.ResetTTLToDefault,
			fmt.Sprintf("TTL reset to default (%d) successfully!", config.DefaultTTL),
			"Failed to reset TTL to default")
	default:
		return apperrors.WrapValidationError(
			fmt.Errorf("fixed TTL must be %d or %d", config.DefaultTTL, config.PresetTTL),
			fmt.Sprint(target))
	}
}

// SetCustom validates raw and, when it is a whole number in range,
// changes the TTL to it. Invalid input never reaches the backend.
func (c *Controller) SetCustom(ctx context.Context, raw string) error {
	value, err := validation.ParseCustomTTL(raw)
	if err != nil {
		perr := apperrors.WrapValidationError(err, strings.TrimSpace(raw))
		c.logger.Warn("Custom TTL rejected", "input", raw, "error", err)
		c.record(journal.Entry{
			Operation: OpSetCustom,
			Procedure: backend.ProcSetTTLCustom,
			Outcome:   journal.OutcomeInvalid,
			Detail:    perr.Message,
		})
		c.notifier.Notify(TitleError, MsgInvalidCustom)
		return perr
	}

	err = c.change(ctx, OpSetCustom, backend.ProcSetTTLCustom, value,
		func(ctx context.Context) (bool, error) { return c.svc.SetTTLCustom(ctx, value) },
		fmt.Sprintf("TTL changed to %d successfully!", value),
		fmt.Sprintf("Failed to change TTL to %d", value))
	if err == nil {
		c.mu.Lock()
		c.state.CustomTTLText = ""
		c.mu.Unlock()
	}
	return err
}

// change runs one guarded mutating call. Only one may be outstanding;
// isChanging is released on every path.
func (c *Controller) change(ctx context.Context, op, procedure string, target int,
	call func(context.Context) (bool, error), okMsg, failMsg string) error {

	if !c.beginChange() {
		c.logger.Debug("Change ignored, another is in flight", "operation", op, "ttl", target)
		return apperrors.Busy("change TTL")
	}
	defer c.endChange()

	ok, err := call(ctx)
	if err != nil {
		err = classify(err, procedure)
	} else if !ok {
		err = apperrors.Rejected(procedure)
	}

	if err != nil {
		c.logFailure(op, err, "ttl", target)
		c.record(failureEntry(op, procedure, target, err))
		c.notifier.Notify(TitleError, failMsg)
		return err
	}

	// The backend's success signal is trusted; no re-read
	c.mu.Lock()
	c.state.CurrentTTL = target
	c.mu.Unlock()

	c.logger.Info("TTL changed", "operation", op, "ttl", target)
	c.record(journal.Entry{Operation: op, Procedure: procedure, Value: intPtr(target), Outcome: journal.OutcomeSuccess})
	c.notifier.Notify(TitleSuccess, okMsg)
	return nil
}

func (c *Controller) beginChange() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.IsChanging {
		return false
	}
	c.state.IsChanging = true
	return true
}

func (c *Controller) endChange() {
	c.mu.Lock()
	c.state.IsChanging = false
	c.mu.Unlock()
}

// SetPersistence installs a persistence rule for the displayed TTL, or
// removes it by persisting the default. It is not serialized with
// SetFixed and SetCustom.
func (c *Controller) SetPersistence(ctx context.Context, enabled bool) error {
	value := config.DefaultTTL
	if enabled {
		snap := c.Snapshot()
		if !snap.Known() {
			err := apperrors.WrapValidationError(fmt.Errorf("current TTL is unknown"), "persist")
			c.logFailure(OpSetPersistence, err)
			c.notifier.Notify(TitleError, MsgPersistenceUnknown)
			return err
		}
		value = snap.CurrentTTL
	}

	ok, err := c.svc.MakeTTLPersistent(ctx, value)
	if err != nil {
		err = classify(err, backend.ProcMakeTTLPersistent)
	} else if !ok {
		err = apperrors.Rejected(backend.ProcMakeTTLPersistent)
	}

	if err != nil {
		c.logFailure(OpSetPersistence, err, "enabled", enabled, "ttl", value)
		c.record(failureEntry(OpSetPersistence, backend.ProcMakeTTLPersistent, value, err))
		c.notifier.Notify(TitleError, MsgPersistenceFailed)
		return err
	}

	c.mu.Lock()
	c.state.IsPersistent = enabled
	c.state.PersistentTTL = nil
	if enabled {
		c.state.PersistentTTL = intPtr(value)
	}
	c.mu.Unlock()

	word := "disabled"
	if enabled {
		word = "enabled"
	}
	c.logger.Info("TTL persistence changed", "enabled", enabled, "ttl", value)
	c.record(journal.Entry{
		Operation: OpSetPersistence,
		Procedure: backend.ProcMakeTTLPersistent,
		Value:     intPtr(value),
		Outcome:   journal.OutcomeSuccess,
		Detail:    word,
	})
	c.notifier.Notify(TitleSuccess, fmt.Sprintf("TTL persistence %s successfully!", word))
	return nil
}

// ToggleAdvanced shows or hides the custom TTL entry
func (c *Controller) ToggleAdvanced(show bool) {
	c.mu.Lock()
	c.state.ShowAdvanced = show
	c.mu.Unlock()
}

// SetCustomDraft stores the custom TTL text as typed
func (c *Controller) SetCustomDraft(text string) {
	c.mu.Lock()
	c.state.CustomTTLText = text
	c.mu.Unlock()
}

// Teardown is handed to the host as the unmount hook
func (c *Controller) Teardown() {
	c.logger.Info("TTL panel unloading")
}

func (c *Controller) record(entry journal.Entry) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(entry); err != nil {
		c.logger.Warn("Failed to journal operation",
			"operation", entry.Operation,
			"error", apperrors.WrapJournalError(err, "record"))
	}
}

func (c *Controller) logFailure(op string, err error, attrs ...any) {
	args := []any{"operation", op, "kind", apperrors.TypeOf(err).String(), "error", err}
	c.logger.Error("TTL operation failed", append(args, attrs...)...)
}

// classify wraps raw service errors; already classified errors pass through
func classify(err error, procedure string) error {
	if apperrors.TypeOf(err) != apperrors.ErrorTypeUnknown {
		return err
	}
	return apperrors.WrapTransportError(err, procedure)
}

func failureEntry(op, procedure string, value int, err error) journal.Entry {
	outcome := journal.OutcomeFailed
	if apperrors.TypeOf(err) == apperrors.ErrorTypeRejected {
		outcome = journal.OutcomeRejected
	}
	return journal.Entry{
		Operation: op,
		Procedure: procedure,
		Value:     intPtr(value),
		Outcome:   outcome,
		Detail:    err.Error(),
	}
}

func intPtr(v int) *int { return &v }
