package domain

import (
	"reflect"
	"strconv"

	"github.com/go-openapi/jsonpointer"
)

// Diff calculates the update that turns oldModel into newModel.
// It descends while exactly one child of a map or slice differs and the shape (keys or
// length) is unchanged, so the returned update replaces the smallest single subtree.
// The boolean is false when both models are equal.
func Diff(oldModel, newModel any) (LayoutUpdate, bool) {
	if reflect.DeepEqual(oldModel, newModel) {
		return LayoutUpdate{}, false
	}
	return diffAt("", oldModel, newModel), true
}

func diffAt(path string, oldValue, newValue any) LayoutUpdate {
	switch n := newValue.(type) {
	case map[string]any:
		o, ok := oldValue.(map[string]any)
		if !ok || len(o) != len(n) {
			break
		}
		changed, count := "", 0
		for k, nv := range n {
			ov, exists := o[k]
			if !exists {
				return NewUpdate(path, newValue)
			}
			if !reflect.DeepEqual(ov, nv) {
				changed = k
				count++
			}
		}
		if count == 1 {
			return diffAt(path+"/"+jsonpointer.Escape(changed), o[changed], n[changed])
		}
	case []any:
		o, ok := oldValue.([]any)
		if !ok || len(o) != len(n) {
			break
		}
		changed, count := 0, 0
		for i := range n {
			if !reflect.DeepEqual(o[i], n[i]) {
				changed = i
				count++
			}
		}
		if count == 1 {
			return diffAt(path+"/"+strconv.Itoa(changed), o[changed], n[changed])
		}
	}
	return NewUpdate(path, newValue)
}
