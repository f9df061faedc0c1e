package layout

import (
	"fmt"

	"github.com/aretw0/canopy/pkg/schema"
)

// Element is one node of a rendered tree, in the JSON shape views consume:
//
//	{"tagName": "button", "attributes": {...}, "eventHandlers": {"onClick": {"target": "h0"}}, "children": [...]}
//
// It is an alias so that trees stay plain maps and slices that domain.Diff and
// domain.ApplyUpdate can walk.
type Element = map[string]any

// Attrs holds the attributes of an element. Values of type EventHandler are moved to the
// element's "eventHandlers" key.
type Attrs = map[string]any

// EventHandler references a handler registered with Renderer.Handler.
type EventHandler struct {
	Target          string
	PreventDefault  bool
	StopPropagation bool
	// Args is set by Renderer.TypedHandler.
	Args schema.Args
}

func (h EventHandler) model() map[string]any {
	m := map[string]any{"target": h.Target}
	if h.PreventDefault {
		m["preventDefault"] = true
	}
	if h.StopPropagation {
		m["stopPropagation"] = true
	}
	if h.Args != nil {
		names := make([]any, len(h.Args))
		for i, n := range h.Args.Names() {
			names[i] = n
		}
		m["args"] = names
	}
	return m
}

// H builds an element. Children may be Elements, strings, numbers, or nil (skipped);
// a []any child is spliced in place.
func H(tag string, attrs Attrs, children ...any) Element {
	el := Element{"tagName": tag}

	var plain, handlers map[string]any
	for k, v := range attrs {
		if h, ok := v.(EventHandler); ok {
			if handlers == nil {
				handlers = make(map[string]any)
			}
			handlers[k] = h.model()
			continue
		}
		if plain == nil {
			plain = make(map[string]any)
		}
		plain[k] = v
	}
	if plain != nil {
		el["attributes"] = plain
	}
	if handlers != nil {
		el["eventHandlers"] = handlers
	}

	if kids := flatten(children); len(kids) > 0 {
		el["children"] = kids
	}
	return el
}

func flatten(children []any) []any {
	var out []any
	for _, c := range children {
		switch v := c.(type) {
		case nil:
		case []any:
			out = append(out, flatten(v)...)
		case []Element:
			for _, e := range v {
				out = append(out, e)
			}
		case Element, string, bool, float64:
			out = append(out, v)
		case fmt.Stringer:
			out = append(out, v.String())
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// Text concatenates the text content of a tree, depth first.
func Text(node any) string {
	switch v := node.(type) {
	case string:
		return v
	case map[string]any:
		return Text(v["children"])
	case []any:
		var s string
		for _, c := range v {
			s += Text(c)
		}
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// FindHandler returns the published reference of the handler with the given target in a
// rendered model, such as {"target": "h0", "args": ["int"]}.
func FindHandler(model any, target string) (map[string]any, bool) {
	switch v := model.(type) {
	case map[string]any:
		if handlers, ok := v["eventHandlers"].(map[string]any); ok {
			for _, h := range handlers {
				if ref, ok := h.(map[string]any); ok && ref["target"] == target {
					return ref, true
				}
			}
		}
		return FindHandler(v["children"], target)
	case []any:
		for _, c := range v {
			if ref, ok := FindHandler(c, target); ok {
				return ref, true
			}
		}
	}
	return nil, false
}
