package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/sessions"
)

// ToastsKey is the storage key holding a scope's pending toasts
const ToastsKey = "toasts"

const (
	DefaultDuration = 5 * time.Second
	maxQueued       = 20
)

// Level of a toast, used as the CSS modifier when rendering
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Toast is a short-lived message shown on the next rendered page
type Toast struct {
	Level    Level         `json:"level"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
}

// DurationMillis is used by the templates to schedule dismissal
func (t Toast) DurationMillis() int64 {
	return t.Duration.Milliseconds()
}

// Notifier queues toasts for one browser. A zero duration means DefaultDuration.
type Notifier interface {
	Success(ctx context.Context, message string, duration time.Duration) error
	Error(ctx context.Context, message string, duration time.Duration) error
	Warning(ctx context.Context, message string, duration time.Duration) error
	Info(ctx context.Context, message string, duration time.Duration) error
}

// Center owns the toast queues of every browser scope
type Center struct {
	storage sessions.Storage
	mu      sync.Mutex
}

func NewCenter(storage sessions.Storage) *Center {
	return &Center{storage: storage}
}

// For returns the Notifier bound to scope
func (c *Center) For(scope string) Notifier {
	return &scopedNotifier{center: c, scope: scope}
}

// Drain returns the queued toasts of scope, oldest first, and empties the queue
func (c *Center) Drain(ctx context.Context, scope string) ([]Toast, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	toasts, err := c.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(toasts) == 0 {
		return nil, nil
	}
	if err := c.storage.Delete(ctx, scope, ToastsKey); err != nil {
		return nil, fmt.Errorf("[Center Drain] %w", err)
	}
	return toasts, nil
}

func (c *Center) push(ctx context.Context, scope string, toast Toast) error {
	toast.Message = strings.TrimSpace(toast.Message)
	if toast.Message == "" {
		return fmt.Errorf("%w: toast message is empty", apperrors.ErrInvalidInput)
	}
	if toast.Duration <= 0 {
		toast.Duration = DefaultDuration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	toasts, err := c.load(ctx, scope)
	if err != nil {
		return err
	}
	toasts = append(toasts, toast)
	if len(toasts) > maxQueued {
		toasts = toasts[len(toasts)-maxQueued:]
	}

	data, err := json.Marshal(toasts)
	if err != nil {
		return fmt.Errorf("[Center push] marshal: %w", err)
	}
	if err := c.storage.Set(ctx, scope, ToastsKey, data); err != nil {
		return fmt.Errorf("[Center push] %w", err)
	}
	return nil
}

func (c *Center) load(ctx context.Context, scope string) ([]Toast, error) {
	data, err := c.storage.Get(ctx, scope, ToastsKey)
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Center load] %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var toasts []Toast
	if err := json.Unmarshal(data, &toasts); err != nil {
		return nil, fmt.Errorf("[Center load] unmarshal: %w", err)
	}
	return toasts, nil
}

type scopedNotifier struct {
	center *Center
	scope  string
}

func (n *scopedNotifier) Success(ctx context.Context, message string, duration time.Duration) error {
	return n.center.push(ctx, n.scope, Toast{Level: LevelSuccess, Message: message, Duration: duration})
}

func (n *scopedNotifier) Error(ctx context.Context, message string, duration time.Duration) error {
	return n.center.push(ctx, n.scope, Toast{Level: LevelError, Message: message, Duration: duration})
}

func (n *scopedNotifier) Warning(ctx context.Context, message string, duration time.Duration) error {
	return n.center.push(ctx, n.scope, Toast{Level: LevelWarning, Message: message, Duration: duration})
}

func (n *scopedNotifier) Info(ctx context.Context, message string, duration time.Duration) error {
	return n.center.push(ctx, n.scope, Toast{Level: LevelInfo, Message: message, Duration: duration})
}
