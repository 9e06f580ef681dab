package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"tasktree/internal/model"
)

// SnapshotVersion is written into every persisted record. Records without a
// version field use the same layout and are read as version 1.
const SnapshotVersion = 1

const snapshotSchemaURL = "tasktree://snapshot.schema.json"

const snapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "folders": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "color": {"type": "string"},
          "isDefault": {"type": "boolean"}
        }
      }
    },
    "taskLists": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "folderId"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "folderId": {"type": "string"},
          "color": {"type": "string"},
          "isDefault": {"type": "boolean"}
        }
      }
    },
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "listId"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "description": {"type": ["string", "null"]},
          "completed": {"type": "boolean"},
          "listId": {"type": "string"},
          "createdAt": {"type": ["string", "null"]},
          "dueDate": {"type": ["string", "null"]},
          "priority": {"enum": ["", "low", "medium", "high", null]},
          "tags": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "selectedListId": {"type": ["string", "null"]},
    "selectedFolderId": {"type": ["string", "null"]}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func snapshotValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchema)); err != nil {
			schemaErr = fmt.Errorf("add snapshot schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(snapshotSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile snapshot schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

type wireSnapshot struct {
	Version          int              `json:"version"`
	Folders          []model.Folder   `json:"folders"`
	TaskLists        []model.TaskList `json:"taskLists"`
	Tasks            []model.Task     `json:"tasks"`
	SelectedListID   *string          `json:"selectedListId"`
	SelectedFolderID *string          `json:"selectedFolderId"`
}

// EncodeSnapshot renders the full persisted record for s.
func EncodeSnapshot(s model.Snapshot) ([]byte, error) {
	w := wireSnapshot{
		Version:          SnapshotVersion,
		Folders:          s.Folders,
		TaskLists:        s.TaskLists,
		Tasks:            s.Tasks,
		SelectedListID:   nullable(s.SelectedListID),
		SelectedFolderID: nullable(s.SelectedFolderID),
	}
	if w.Folders == nil {
		w.Folders = []model.Folder{}
	}
	if w.TaskLists == nil {
		w.TaskLists = []model.TaskList{}
	}
	if w.Tasks == nil {
		w.Tasks = []model.Task{}
	}
	return json.Marshal(w)
}

// ParsePatch decodes a full or partial snapshot record. Only the top-level
// fields present in data end up in the patch. Every failure wraps
// ErrMalformedSnapshot.
func ParsePatch(data []byte) (SnapshotPatch, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return SnapshotPatch{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	schema, err := snapshotValidator()
	if err != nil {
		return SnapshotPatch{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return SnapshotPatch{}, fmt.Errorf("%w: %s", ErrMalformedSnapshot, schemaMessage(err))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return SnapshotPatch{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	if raw, ok := fields["version"]; ok {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return SnapshotPatch{}, fmt.Errorf("%w: version: %v", ErrMalformedSnapshot, err)
		}
		if v > SnapshotVersion {
			return SnapshotPatch{}, fmt.Errorf("%w: version %d is newer than supported %d", ErrMalformedSnapshot, v, SnapshotVersion)
		}
	}

	var p SnapshotPatch
	if raw, ok := fields["folders"]; ok {
		var folders []model.Folder
		if err := json.Unmarshal(raw, &folders); err != nil {
			return SnapshotPatch{}, fmt.Errorf("%w: folders: %v", ErrMalformedSnapshot, err)
		}
		p.Folders = &folders
	}
	if raw, ok := fields["taskLists"]; ok {
		var lists []model.TaskList
		if err := json.Unmarshal(raw, &lists); err != nil {
			return SnapshotPatch{}, fmt.Errorf("%w: taskLists: %v", ErrMalformedSnapshot, err)
		}
		p.TaskLists = &lists
	}
	if raw, ok := fields["tasks"]; ok {
		var tasks []model.Task
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return SnapshotPatch{}, fmt.Errorf("%w: tasks: %v", ErrMalformedSnapshot, err)
		}
		p.Tasks = &tasks
	}
	if raw, ok := fields["selectedListId"]; ok {
		id, err := decodeSelection(raw)
		if err != nil {
			return SnapshotPatch{}, fmt.Errorf("%w: selectedListId: %v", ErrMalformedSnapshot, err)
		}
		p.SelectedListID = &id
	}
	if raw, ok := fields["selectedFolderId"]; ok {
		id, err := decodeSelection(raw)
		if err != nil {
			return SnapshotPatch{}, fmt.Errorf("%w: selectedFolderId: %v", ErrMalformedSnapshot, err)
		}
		p.SelectedFolderID = &id
	}
	return p, nil
}

func decodeSelection(raw json.RawMessage) (string, error) {
	var id *string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", err
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}

func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// schemaMessage reports the first leaf cause of a schema failure.
func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
