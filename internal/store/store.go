// Package store owns the folder/list/task state. Mutations go through
// Dispatch, which runs the pure Reduce function, persists the new snapshot
// through a KV port and notifies subscribers.
package store

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tasktree/internal/model"
)

// DefaultKey is the storage key the snapshot is persisted under.
const DefaultKey = "taskListData"

// KV is the durable key-value storage the store persists into.
type KV interface {
	// Get returns ok=false when key has never been written.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Change describes one applied action.
type Change struct {
	Action Action
	Prev   model.Snapshot
	Next   model.Snapshot
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithIDs(ids IDGenerator) Option {
	return func(s *Store) {
		if ids != nil {
			s.ids = ids
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSeed replaces the built-in seed used when nothing valid is persisted.
func WithSeed(seed model.Snapshot) Option {
	return func(s *Store) {
		cp := seed.Clone()
		s.seed = &cp
	}
}

// WithDefaultProtection makes Dispatch reject deleting default folders and
// lists, and folders that own a default list.
func WithDefaultProtection(on bool) Option {
	return func(s *Store) {
		s.protectDefaults = on
	}
}

type Store struct {
	mu              sync.Mutex
	state           model.Snapshot
	kv              KV
	key             string
	ids             IDGenerator
	now             func() time.Time
	log             *log.Logger
	seed            *model.Snapshot
	protectDefaults bool

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New builds a store and seeds it from kv. A missing or unreadable record
// falls back to the seed; New never fails.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:   kv,
		key:  DefaultKey,
		ids:  UUIDs{},
		now:  time.Now,
		log:  log.New(io.Discard),
		subs: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	state, fresh := s.rehydrate()
	s.state = state
	if fresh {
		if err := s.persist(s.state); err != nil {
			s.log.Error("persist initial snapshot", "key", s.key, "err", err)
		}
	}
	return s
}

// RejectedSuffix is appended to the storage key to keep a copy of a record
// that failed to parse at startup.
const RejectedSuffix = ".rejected"

// rehydrate loads the persisted snapshot over the seed. fresh reports that
// nothing was stored, so the seed may be written. A failed read or a rejected
// record leaves storage untouched; the rejected record is also copied under
// key+RejectedSuffix.
func (s *Store) rehydrate() (state model.Snapshot, fresh bool) {
	seed := model.Seed(s.now())
	if s.seed != nil {
		seed = s.seed.Clone()
	}

	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.log.Warn("read persisted snapshot, using seed", "key", s.key, "err", err)
		return seed, false
	}
	if !ok {
		s.log.Debug("no persisted snapshot, using seed", "key", s.key)
		return seed, true
	}
	patch, err := ParsePatch([]byte(raw))
	if err != nil {
		s.log.Warn("discarding persisted snapshot", "key", s.key, "err", err)
		if err := s.kv.Set(s.key+RejectedSuffix, raw); err != nil {
			s.log.Error("keep rejected snapshot", "key", s.key+RejectedSuffix, "err", err)
		}
		return seed, false
	}
	return Reduce(seed, LoadData{Patch: patch}), false
}

// Dispatch applies a and persists the result. Add actions without an id get
// one from the IDGenerator; AddTask without CreatedAt gets the clock time.
// A persistence failure is logged and returned, but the in-memory state
// keeps the transition.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	if err := s.guard(a); err != nil {
		s.mu.Unlock()
		return err
	}
	a = s.stamp(a)
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	s.log.Debug("applied action", "action", a.Kind())
	err := s.persist(next)
	s.mu.Unlock()

	s.notify(Change{Action: a, Prev: prev.Clone(), Next: next.Clone()})
	if err != nil {
		s.log.Error("persist snapshot", "key", s.key, "action", a.Kind(), "err", err)
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// SelectList selects a list and clears the folder selection. Both actions
// are applied even when persisting the first one fails.
func (s *Store) SelectList(id string) error {
	return errors.Join(
		s.Dispatch(SetSelectedList{ListID: id}),
		s.Dispatch(SetSelectedFolder{FolderID: ""}),
	)
}

// SelectFolder selects a folder and clears the list selection.
func (s *Store) SelectFolder(id string) error {
	return errors.Join(
		s.Dispatch(SetSelectedFolder{FolderID: id}),
		s.Dispatch(SetSelectedList{ListID: ""}),
	)
}

// NewID reserves an id for callers that need to know it before dispatching
// an add action.
func (s *Store) NewID() string {
	return s.ids.NewID()
}

// Subscribe registers fn to run after every applied action. The returned
// func removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) TasksForList(listID string) []model.Task {
	return s.view().TasksForList(listID)
}

func (s *Store) TaskListsForFolder(folderID string) []model.TaskList {
	return s.view().TaskListsForFolder(folderID)
}

func (s *Store) CurrentFolder() (model.Folder, bool) {
	return s.view().CurrentFolder()
}

func (s *Store) CurrentList() (model.TaskList, bool) {
	return s.view().CurrentList()
}

func (s *Store) ListStats(listID string) model.Stats {
	return s.view().ListStats(listID)
}

// Export returns the persisted form of the current state.
func (s *Store) Export() ([]byte, error) {
	return EncodeSnapshot(s.view())
}

// view returns the current state without copying. Snapshot methods never
// mutate, and Reduce replaces rather than edits slices.
func (s *Store) view() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) stamp(a Action) Action {
	switch v := a.(type) {
	case AddFolder:
		if v.ID == "" {
			v.ID = s.ids.NewID()
		}
		return v
	case AddTaskList:
		if v.ID == "" {
			v.ID = s.ids.NewID()
		}
		return v
	case AddTask:
		if v.ID == "" {
			v.ID = s.ids.NewID()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = s.now().UTC()
		}
		return v
	}
	return a
}

func (s *Store) guard(a Action) error {
	if !s.protectDefaults {
		return nil
	}
	switch a := a.(type) {
	case DeleteFolder:
		f, ok := s.state.Folder(a.ID)
		if !ok {
			return nil
		}
		if f.IsDefault {
			return fmt.Errorf("%w: folder %q", ErrDefaultProtected, f.Name)
		}
		for _, l := range s.state.TaskListsForFolder(a.ID) {
			if l.IsDefault {
				return fmt.Errorf("%w: folder %q holds default list %q", ErrDefaultProtected, f.Name, l.Name)
			}
		}
	case DeleteTaskList:
		if l, ok := s.state.TaskList(a.ID); ok && l.IsDefault {
			return fmt.Errorf("%w: list %q", ErrDefaultProtected, l.Name)
		}
	}
	return nil
}

func (s *Store) persist(state model.Snapshot) error {
	data, err := EncodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.kv.Set(s.key, string(data))
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
