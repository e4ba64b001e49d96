package imagetools

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
)

type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NoteStore keeps notes in memory. IDs are decimal strings assigned as count+1.
type NoteStore struct {
	notes map[string]Note
	lock  sync.RWMutex
}

// NewNoteStore returns a store seeded with the two starter notes
func NewNoteStore() *NoteStore {
	return &NoteStore{
		notes: map[string]Note{
			"1": {ID: "1", Title: "First Note", Content: "This is note 1"},
			"2": {ID: "2", Title: "Second Note", Content: "This is note 2"},
		},
	}
}

func (s *NoteStore) Create(title, content string) Note {
	s.lock.Lock()
	defer s.lock.Unlock()

	note := Note{ID: strconv.Itoa(len(s.notes) + 1), Title: title, Content: content}
	s.notes[note.ID] = note
	return note
}

func (s *NoteStore) Get(id string) (Note, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	note, ok := s.notes[id]
	if !ok {
		return Note{}, fmt.Errorf("Note %s not found: %w", id, apperrors.ErrNoteNotFound)
	}
	return note, nil
}

// List returns every note ordered by numeric id
func (s *NoteStore) List() []Note {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}
