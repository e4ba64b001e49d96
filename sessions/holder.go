package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
)

// Holder is the session state of a single browser scope. It is built per request and is not
// safe for concurrent use; the storage underneath is.
type Holder struct {
	storage       Storage
	scope         string
	authenticated bool
}

func NewHolder(storage Storage, scope string) *Holder {
	return &Holder{
		storage: storage,
		scope:   scope,
	}
}

func (h *Holder) Scope() string {
	return h.scope
}

// Authenticated returns the flag cached by the last Check, SignIn or SignOut
func (h *Holder) Authenticated() bool {
	return h.authenticated
}

// Check reads the record key and reports whether a record is present. It only updates the
// cached flag; storage is never written. Backend errors are returned as-is and leave the
// cached flag untouched.
func (h *Holder) Check(ctx context.Context) (bool, error) {
	data, err := h.storage.Get(ctx, h.scope, RecordKey)
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		h.authenticated = false
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("[Holder Check] %w", err)
	}
	h.authenticated = len(data) > 0
	return h.authenticated, nil
}

// SignIn stores the record, replacing whatever was there
func (h *Holder) SignIn(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("[Holder SignIn] marshal record: %w", err)
	}
	if err := h.storage.Set(ctx, h.scope, RecordKey, data); err != nil {
		return fmt.Errorf("[Holder SignIn] %w", err)
	}
	h.authenticated = true
	return nil
}

// SignOut deletes the stored record
func (h *Holder) SignOut(ctx context.Context) error {
	if err := h.storage.Delete(ctx, h.scope, RecordKey); err != nil {
		return fmt.Errorf("[Holder SignOut] %w", err)
	}
	h.authenticated = false
	return nil
}

// Record reads and decodes the stored record
func (h *Holder) Record(ctx context.Context) (*Record, error) {
	data, err := h.storage.Get(ctx, h.scope, RecordKey)
	if err != nil {
		return nil, fmt.Errorf("[Holder Record] %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("[Holder Record] empty record: %w", apperrors.ErrSessionNotFound)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("[Holder Record] unmarshal record: %w", err)
	}
	return &record, nil
}

// Update applies fn to the stored record and writes the result back
func (h *Holder) Update(ctx context.Context, fn func(*Record)) (*Record, error) {
	record, err := h.Record(ctx)
	if err != nil {
		return nil, err
	}
	fn(record)
	if err := h.SignIn(ctx, *record); err != nil {
		return nil, err
	}
	return record, nil
}
