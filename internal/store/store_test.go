package store_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"tasktree/internal/model"
	"tasktree/internal/storage"
	"tasktree/internal/store"
)

func fixedClock() time.Time { return created }

// newTestStore builds a store over kv with deterministic ids and clock.
func newTestStore(t *testing.T, kv store.KV, opts ...store.Option) *store.Store {
	t.Helper()
	base := []store.Option{
		store.WithIDs(&store.SequenceIDs{Prefix: "id-"}),
		store.WithClock(fixedClock),
		store.WithSeed(scenarioSeed()),
	}
	return store.New(kv, append(base, opts...)...)
}

func TestNewUsesSeedWhenNothingPersisted(t *testing.T) {
	kv := storage.NewMemory()
	st := newTestStore(t, kv)

	if got := st.Snapshot(); !reflect.DeepEqual(got, scenarioSeed()) {
		t.Errorf("expected seed, got %+v", got)
	}
	if _, ok, _ := kv.Get(store.DefaultKey); !ok {
		t.Error("expected initial snapshot to be persisted")
	}
}

func TestNewUsesBuiltInSeedByDefault(t *testing.T) {
	st := store.New(storage.NewMemory(), store.WithClock(fixedClock))
	want := model.Seed(created)
	if got := st.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected built-in seed, got %+v", got)
	}
	if l, ok := st.CurrentList(); !ok || l.Name != "Today's Tasks" {
		t.Errorf("expected Today's Tasks selected, got %+v", l)
	}
}

func TestPersistedSnapshotRoundTrip(t *testing.T) {
	kv := storage.NewMemory()
	st := newTestStore(t, kv)

	due := model.NewDate(2024, time.May, 10)
	want := model.Snapshot{
		Folders:   []model.Folder{{ID: "a", Name: "Home", Color: "#f57c00", IsDefault: true}},
		TaskLists: []model.TaskList{{ID: "b", Name: "Chores", FolderID: "a", Color: "#f57c00"}},
		Tasks: []model.Task{{
			ID: "c", Title: "Sweep", Description: "porch", ListID: "b", CreatedAt: created,
			DueDate: &due, Priority: model.PriorityLow, Tags: []string{"home", "weekly"},
		}},
		SelectedFolderID: "a",
	}
	if err := st.Dispatch(store.LoadData{Patch: store.PatchOf(want)}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	reread := newTestStore(t, kv)
	if got := reread.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestCorruptSnapshotFallsBackToSeed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{not json"},
		{name: "wrong shape", raw: `{"folders": "nope"}`},
		{name: "task without title", raw: `{"tasks": [{"id": "1", "listId": "1"}]}`},
		{name: "unknown priority", raw: `{"tasks": [{"id": "1", "title": "x", "listId": "1", "priority": "urgent"}]}`},
		{name: "bad due date", raw: `{"tasks": [{"id": "1", "title": "x", "listId": "1", "dueDate": "soon"}]}`},
		{name: "newer version", raw: `{"version": 99, "folders": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			if err := kv.Set(store.DefaultKey, tt.raw); err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			st := newTestStore(t, kv, store.WithLogger(log.New(&buf)))

			if got := st.Snapshot(); !reflect.DeepEqual(got, scenarioSeed()) {
				t.Errorf("expected seed, got %+v", got)
			}
			if !strings.Contains(buf.String(), "discarding persisted snapshot") {
				t.Errorf("expected diagnostic, got log %q", buf.String())
			}
			if raw, _, _ := kv.Get(store.DefaultKey); raw != tt.raw {
				t.Errorf("rejected record was overwritten with %q", raw)
			}
			if kept, ok, _ := kv.Get(store.DefaultKey + store.RejectedSuffix); !ok || kept != tt.raw {
				t.Errorf("expected rejected copy, got %q (ok=%v)", kept, ok)
			}
		})
	}
}

// flakyKV fails the first failGets reads and delegates everything else.
type flakyKV struct {
	*storage.Memory
	failGets int
}

func (f *flakyKV) Get(key string) (string, bool, error) {
	if f.failGets > 0 {
		f.failGets--
		return "", false, errors.New("database is locked")
	}
	return f.Memory.Get(key)
}

func TestNewKeepsRecordWhenReadFails(t *testing.T) {
	saved := `{"folders":[{"id":"u1","name":"MyFolder"}]}`
	kv := &flakyKV{Memory: storage.NewMemory(), failGets: 1}
	if err := kv.Set(store.DefaultKey, saved); err != nil {
		t.Fatal(err)
	}
	writes := kv.Writes()

	var buf bytes.Buffer
	st := newTestStore(t, kv, store.WithLogger(log.New(&buf)))
	if got := st.Snapshot(); !reflect.DeepEqual(got, scenarioSeed()) {
		t.Errorf("expected seed after failed read, got %+v", got)
	}
	if kv.Writes() != writes {
		t.Errorf("startup wrote %d times after a failed read", kv.Writes()-writes)
	}

	again := newTestStore(t, kv)
	if f, ok := again.Snapshot().Folder("u1"); !ok || f.Name != "MyFolder" {
		t.Errorf("saved folder lost, got %+v", again.Snapshot().Folders)
	}
}

func TestNewDoesNotRewriteValidRecord(t *testing.T) {
	kv := storage.NewMemory()
	newTestStore(t, kv)
	writes := kv.Writes()

	newTestStore(t, kv)
	if kv.Writes() != writes {
		t.Errorf("reopening wrote %d times", kv.Writes()-writes)
	}
}

func TestLegacySnapshotIsMergedOverSeed(t *testing.T) {
	kv := storage.NewMemory()
	legacy := `{
  "tasks": [
    {"id": "9", "title": "Old task", "description": "", "completed": true, "listId": "L1",
     "createdAt": "2023-12-01T10:00:00.000Z", "dueDate": null}
  ],
  "selectedListId": "L1",
  "selectedFolderId": null
}`
	if err := kv.Set(store.DefaultKey, legacy); err != nil {
		t.Fatal(err)
	}
	st := newTestStore(t, kv)

	snap := st.Snapshot()
	if len(snap.Folders) != 1 || snap.Folders[0].ID != "F1" {
		t.Errorf("folders should come from the seed, got %+v", snap.Folders)
	}
	tasks := st.TasksForList("L1")
	if len(tasks) != 1 || tasks[0].ID != "9" || !tasks[0].Completed {
		t.Errorf("tasks should come from storage, got %+v", tasks)
	}
}

func TestDispatchPersistsEveryAction(t *testing.T) {
	kv := storage.NewMemory()
	st := newTestStore(t, kv)
	start := kv.Writes()

	actions := []store.Action{
		store.ToggleTask{ID: "T1"},
		store.ToggleTask{ID: "missing"},
		store.AddFolder{Name: "Work"},
	}
	for _, a := range actions {
		if err := st.Dispatch(a); err != nil {
			t.Fatalf("%s: %v", a.Kind(), err)
		}
	}
	if got := kv.Writes() - start; got != len(actions) {
		t.Errorf("expected %d writes, got %d", len(actions), got)
	}

	raw, _, _ := kv.Get(store.DefaultKey)
	patch, err := store.ParsePatch([]byte(raw))
	if err != nil {
		t.Fatalf("persisted record does not parse: %v", err)
	}
	if patch.Folders == nil || len(*patch.Folders) != 2 {
		t.Errorf("expected persisted record to hold the new folder, got %+v", patch.Folders)
	}
}

func TestDispatchPersistFailureKeepsTransition(t *testing.T) {
	kv := storage.NewMemory()
	var buf bytes.Buffer
	st := newTestStore(t, kv, store.WithLogger(log.New(&buf)))

	diskFull := errors.New("disk full")
	kv.SetErr = diskFull
	err := st.Dispatch(store.ToggleTask{ID: "T1"})
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected wrapped disk error, got %v", err)
	}
	if tasks := st.TasksForList("L1"); !tasks[0].Completed {
		t.Error("in-memory state should keep the toggle")
	}
	if !strings.Contains(buf.String(), "persist snapshot") {
		t.Errorf("expected error to be logged, got %q", buf.String())
	}
}

func TestDispatchAssignsIDsAndCreatedAt(t *testing.T) {
	st := newTestStore(t, storage.NewMemory())

	if err := st.Dispatch(store.AddFolder{Name: "Work", Color: "#388e3c"}); err != nil {
		t.Fatal(err)
	}
	folderID := st.Snapshot().Folders[1].ID
	if err := st.Dispatch(store.AddTaskList{Name: "Sprint", FolderID: folderID}); err != nil {
		t.Fatal(err)
	}
	listID := st.Snapshot().TaskLists[1].ID
	if err := st.Dispatch(store.AddTask{Title: "Ship it", ListID: listID}); err != nil {
		t.Fatal(err)
	}

	snap := st.Snapshot()
	if folderID != "id-1" || listID != "id-2" || snap.Tasks[1].ID != "id-3" {
		t.Errorf("unexpected ids %q %q %q", folderID, listID, snap.Tasks[1].ID)
	}
	if !snap.Tasks[1].CreatedAt.Equal(created) {
		t.Errorf("expected createdAt from clock, got %v", snap.Tasks[1].CreatedAt)
	}
}

func TestScenarioAddFolderListTaskWithUniqueIDs(t *testing.T) {
	st := store.New(storage.NewMemory(), store.WithSeed(scenarioSeed()))
	before := st.Snapshot()

	folderID := st.NewID()
	listID := st.NewID()
	steps := []store.Action{
		store.AddFolder{ID: folderID, Name: "Work", Color: "#388e3c"},
		store.AddTaskList{ID: listID, Name: "Sprint", FolderID: folderID},
		store.AddTask{Title: "Ship it", ListID: listID},
	}
	for _, a := range steps {
		if err := st.Dispatch(a); err != nil {
			t.Fatalf("%s: %v", a.Kind(), err)
		}
	}

	after := st.Snapshot()
	if len(after.Folders) != len(before.Folders)+1 ||
		len(after.TaskLists) != len(before.TaskLists)+1 ||
		len(after.Tasks) != len(before.Tasks)+1 {
		t.Fatalf("expected exactly one new entity of each kind, got %+v", after)
	}
	lists := st.TaskListsForFolder(folderID)
	if len(lists) != 1 || lists[0].Name != "Sprint" {
		t.Errorf("expected Sprint under new folder, got %+v", lists)
	}
	tasks := st.TasksForList(listID)
	if len(tasks) != 1 || tasks[0].Title != "Ship it" || tasks[0].Completed {
		t.Errorf("expected open Ship it under new list, got %+v", tasks)
	}

	seen := map[string]bool{}
	for _, id := range []string{"F1", "L1", "T1", folderID, listID, tasks[0].ID} {
		if seen[id] {
			t.Errorf("id %q reused", id)
		}
		seen[id] = true
	}
}

func TestDefaultProtection(t *testing.T) {
	seed := twoFolderSeed()
	seed.TaskLists[2].IsDefault = true

	tests := []struct {
		name    string
		action  store.Action
		blocked bool
	}{
		{name: "default folder", action: store.DeleteFolder{ID: "F1"}, blocked: true},
		{name: "folder holding default list", action: store.DeleteFolder{ID: "F2"}, blocked: true},
		{name: "default list", action: store.DeleteTaskList{ID: "L3"}, blocked: true},
		{name: "plain list", action: store.DeleteTaskList{ID: "L2"}, blocked: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New(storage.NewMemory(), store.WithSeed(seed), store.WithDefaultProtection(true))
			before := st.Snapshot()
			err := st.Dispatch(tt.action)
			if tt.blocked {
				if !errors.Is(err, store.ErrDefaultProtected) {
					t.Fatalf("expected ErrDefaultProtected, got %v", err)
				}
				if !reflect.DeepEqual(before, st.Snapshot()) {
					t.Error("blocked delete changed state")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}

	st := store.New(storage.NewMemory(), store.WithSeed(seed))
	if err := st.Dispatch(store.DeleteFolder{ID: "F1"}); err != nil {
		t.Fatalf("without protection the delete should pass: %v", err)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	st := newTestStore(t, storage.NewMemory())

	var changes []store.Change
	cancel := st.Subscribe(func(c store.Change) { changes = append(changes, c) })

	if err := st.Dispatch(store.ToggleTask{ID: "T1"}); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	c := changes[0]
	if c.Action.Kind() != "ToggleTask" || c.Prev.Tasks[0].Completed || !c.Next.Tasks[0].Completed {
		t.Errorf("unexpected change %+v", c)
	}

	cancel()
	if err := st.Dispatch(store.ToggleTask{ID: "T1"}); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Errorf("expected no change after unsubscribe, got %d", len(changes))
	}
}

func TestSelectListAndFolderAreExclusive(t *testing.T) {
	st := newTestStore(t, storage.NewMemory())

	if err := st.SelectFolder("F1"); err != nil {
		t.Fatal(err)
	}
	snap := st.Snapshot()
	if snap.SelectedFolderID != "F1" || snap.SelectedListID != "" {
		t.Errorf("expected folder only, got %+v", snap)
	}
	if f, ok := st.CurrentFolder(); !ok || f.ID != "F1" {
		t.Errorf("expected current folder F1, got %+v", f)
	}
	if _, ok := st.CurrentList(); ok {
		t.Error("expected no current list")
	}

	if err := st.SelectList("L1"); err != nil {
		t.Fatal(err)
	}
	snap = st.Snapshot()
	if snap.SelectedFolderID != "" || snap.SelectedListID != "L1" {
		t.Errorf("expected list only, got %+v", snap)
	}
	if f, ok := st.CurrentFolder(); !ok || f.ID != "F1" {
		t.Errorf("current folder should follow the list, got %+v", f)
	}
}

func TestSelectListClearsFolderWhenPersistFails(t *testing.T) {
	kv := storage.NewMemory()
	st := newTestStore(t, kv)
	if err := st.SelectFolder("F1"); err != nil {
		t.Fatal(err)
	}

	diskFull := errors.New("disk full")
	kv.SetErr = diskFull
	err := st.SelectList("L1")
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected disk error, got %v", err)
	}
	snap := st.Snapshot()
	if snap.SelectedListID != "L1" || snap.SelectedFolderID != "" {
		t.Errorf("expected list only, got list %q folder %q", snap.SelectedListID, snap.SelectedFolderID)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	st := newTestStore(t, storage.NewMemory())
	snap := st.Snapshot()
	snap.Tasks[0].Title = "mutated"
	snap.Folders[0].Name = "mutated"

	again := st.Snapshot()
	if again.Tasks[0].Title == "mutated" || again.Folders[0].Name == "mutated" {
		t.Error("snapshot aliases store state")
	}
}

func TestUUIDsAreUnique(t *testing.T) {
	var ids store.UUIDs
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := ids.NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s after %d draws", id, i)
		}
		seen[id] = struct{}{}
	}
}
