package imagetools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
)

const (
	ToolCreateNote = "create_note"
	ToolFetchImage = "fetch_image"

	MinImageCount = 1
	MaxImageCount = 10
)

// ImageSearcher finds images by keyword
type ImageSearcher interface {
	SearchPhotos(ctx context.Context, query string, count int) ([]Image, error)
}

// CallObserver is told about every dispatched call
type CallObserver func(tool string, elapsed time.Duration, err error)

// Dispatcher executes the named tools against the note store and image search
type Dispatcher struct {
	notes    *NoteStore
	images   ImageSearcher
	observer CallObserver
	created  []func(Note)
}

func NewDispatcher(notes *NoteStore, images ImageSearcher) *Dispatcher {
	return &Dispatcher{notes: notes, images: images}
}

// Observe installs fn as the call observer
func (d *Dispatcher) Observe(fn CallObserver) {
	d.observer = fn
}

// OnNoteCreated registers fn to run after each create_note
func (d *Dispatcher) OnNoteCreated(fn func(Note)) {
	d.created = append(d.created, fn)
}

func (d *Dispatcher) Notes() *NoteStore {
	return d.notes
}

// Call runs the named tool and returns its text result
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]interface{}) (result string, err error) {
	start := time.Now()
	defer func() {
		if d.observer != nil {
			d.observer(name, time.Since(start), err)
		}
	}()

	switch name {
	case ToolCreateNote:
		note, err := d.CreateNote(stringArg(args, "title"), stringArg(args, "content"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created note %s: %s", note.ID, note.Title), nil

	case ToolFetchImage:
		count, err := countArg(args, "count")
		if err != nil {
			return "", err
		}
		imgs, err := d.FetchImage(ctx, stringArg(args, "query"), count)
		if err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(imgs, "", "  ")
		if err != nil {
			return "", fmt.Errorf("[Dispatcher Call] marshal images: %w", err)
		}
		return string(out), nil

	default:
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnknownTool, name)
	}
}

// CreateNote stores a new note; both fields must be non-empty
func (d *Dispatcher) CreateNote(title, content string) (Note, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return Note{}, fmt.Errorf("%w: title and content required", apperrors.ErrMissingArguments)
	}
	note := d.notes.Create(title, content)
	for _, fn := range d.created {
		fn(note)
	}
	return note, nil
}

// FetchImage searches for count images matching query. A zero count counts as missing.
func (d *Dispatcher) FetchImage(ctx context.Context, query string, count int) ([]Image, error) {
	if strings.TrimSpace(query) == "" || count == 0 {
		return nil, fmt.Errorf("%w: query and count required", apperrors.ErrMissingArguments)
	}
	if count < MinImageCount || count > MaxImageCount {
		return nil, fmt.Errorf("%w: count must be between %d and %d", apperrors.ErrInvalidArgument, MinImageCount, MaxImageCount)
	}
	return d.images.SearchPhotos(ctx, query, count)
}

func stringArg(args map[string]interface{}, name string) string {
	switch v := args[name].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// countArg accepts JSON numbers, Go ints and numeric strings. Missing means zero.
func countArg(args map[string]interface{}, name string) (int, error) {
	var f float64
	switch v := args[name].(type) {
	case nil:
		return 0, nil
	case float64:
		f = v
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a number", apperrors.ErrInvalidArgument, name)
		}
		f = parsed
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a number", apperrors.ErrInvalidArgument, name)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s is not a number", apperrors.ErrInvalidArgument, name)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s must be a whole number", apperrors.ErrInvalidArgument, name)
	}
	return int(f), nil
}
