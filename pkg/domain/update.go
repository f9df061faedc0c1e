package domain

import (
	"fmt"

	"github.com/go-openapi/jsonpointer"
	"github.com/mohae/deepcopy"
)

// UpdateType is the message type carried by every patch sent to a view.
const UpdateType = "layout-update"

// LayoutUpdate is a patch produced by a Layout render.
type LayoutUpdate struct {
	Type  string `json:"type" mapstructure:"type"`
	Path  string `json:"path" mapstructure:"path"`
	Model any    `json:"model" mapstructure:"model"`
}

// NewUpdate builds a layout-update for the given path.
func NewUpdate(path string, model any) LayoutUpdate {
	return LayoutUpdate{Type: UpdateType, Path: path, Model: model}
}

// FullUpdate builds an update replacing the entire model.
func FullUpdate(model any) LayoutUpdate {
	return NewUpdate("", model)
}

// IsFull reports whether the update replaces the whole model.
func (u LayoutUpdate) IsFull() bool {
	return u.Path == ""
}

// Snapshot is the current model of a widget.
// A Snapshot is never mutated after it has been produced: ApplyUpdate returns a new one,
// so snapshots can be handed to views and stores without copying.
type Snapshot struct {
	Model    any    `json:"model"`
	Revision uint64 `json:"revision"`
}

// Bootstrap returns the full-replacement update a newly ready view receives.
func (s Snapshot) Bootstrap() LayoutUpdate {
	return FullUpdate(s.Model)
}

// ApplyUpdate merges the update into the snapshot and returns the result.
// The receiver is left untouched.
func ApplyUpdate(s Snapshot, u LayoutUpdate) (Snapshot, error) {
	value := deepcopy.Copy(u.Model)
	if u.IsFull() {
		return Snapshot{Model: value, Revision: s.Revision + 1}, nil
	}

	ptr, err := jsonpointer.New(u.Path)
	if err != nil {
		return s, fmt.Errorf("%w: %q: %v", ErrInvalidPath, u.Path, err)
	}
	if s.Model == nil {
		return s, fmt.Errorf("%w: %q: model is empty", ErrInvalidPath, u.Path)
	}

	doc := deepcopy.Copy(s.Model)
	if err := setPointer(ptr, doc, value); err != nil {
		return s, fmt.Errorf("%w: %q: %v", ErrInvalidPath, u.Path, err)
	}
	return Snapshot{Model: doc, Revision: s.Revision + 1}, nil
}

// setPointer converts reflection panics (a null value into a slice slot, a
// non-container parent) into errors.
func setPointer(ptr jsonpointer.Pointer, doc, value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("set: %v", r)
		}
	}()
	_, err = ptr.Set(doc, value)
	return err
}

// Lookup returns the value stored at path in model.
func Lookup(model any, path string) (any, error) {
	if path == "" {
		return model, nil
	}
	ptr, err := jsonpointer.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
	}
	v, _, err := ptr.Get(model)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
	}
	return v, nil
}
