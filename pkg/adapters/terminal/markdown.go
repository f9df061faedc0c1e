package terminal

import (
	"fmt"
	"slices"
	"strings"
)

// Markdown renders an element tree as markdown. Elements are maps with "tagName",
// "attributes", "eventHandlers" and "children" keys; unknown tags render their children
// inline. Clickable elements are suffixed with their handler target so a user can
// address them.
func Markdown(model any) string {
	var b strings.Builder
	writeBlock(&b, model)
	return strings.TrimSpace(collapse(b.String())) + "\n"
}

func writeBlock(b *strings.Builder, node any) {
	el, ok := node.(map[string]any)
	if !ok {
		b.WriteString(inline(node))
		return
	}

	tag, _ := el["tagName"].(string)
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		fmt.Fprintf(b, "\n\n%s %s\n\n", strings.Repeat("#", level), inline(el))
	case "p":
		fmt.Fprintf(b, "\n\n%s\n\n", inline(el))
	case "ul", "ol":
		b.WriteString("\n\n")
		for i, c := range children(el) {
			marker := "-"
			if tag == "ol" {
				marker = fmt.Sprintf("%d.", i+1)
			}
			fmt.Fprintf(b, "%s %s\n", marker, inline(c))
		}
		b.WriteString("\n")
	case "pre":
		fmt.Fprintf(b, "\n\n```\n%s\n```\n\n", text(el))
	case "hr":
		b.WriteString("\n\n---\n\n")
	case "div", "section", "main", "article", "form", "":
		for _, c := range children(el) {
			writeBlock(b, c)
		}
	default:
		b.WriteString(inline(el))
	}
}

func inline(node any) string {
	switch v := node.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var s strings.Builder
		for _, c := range v {
			s.WriteString(inline(c))
		}
		return s.String()
	case map[string]any:
		inner := inline(v["children"])
		tag, _ := v["tagName"].(string)
		switch tag {
		case "strong", "b":
			inner = "**" + inner + "**"
		case "em", "i":
			inner = "_" + inner + "_"
		case "code":
			inner = "`" + inner + "`"
		case "a":
			if attrs, ok := v["attributes"].(map[string]any); ok {
				if href, ok := attrs["href"].(string); ok {
					inner = "[" + inner + "](" + href + ")"
				}
			}
		case "br":
			inner = "\n"
		case "input":
			if attrs, ok := v["attributes"].(map[string]any); ok {
				inner = fmt.Sprintf("[%v]", attrs["value"])
			}
		}
		if targets := handlerTargets(v); targets != "" {
			inner = "[" + inner + "]" + targets
		}
		return inner
	default:
		return fmt.Sprint(v)
	}
}

func text(node any) string {
	switch v := node.(type) {
	case string:
		return v
	case map[string]any:
		return text(v["children"])
	case []any:
		var s strings.Builder
		for _, c := range v {
			s.WriteString(text(c))
		}
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func children(el map[string]any) []any {
	kids, _ := el["children"].([]any)
	return kids
}

func handlerTargets(el map[string]any) string {
	handlers, ok := el["eventHandlers"].(map[string]any)
	if !ok || len(handlers) == 0 {
		return ""
	}
	var targets []string
	for _, h := range handlers {
		if m, ok := h.(map[string]any); ok {
			if t, ok := m["target"].(string); ok {
				targets = append(targets, t)
			}
		}
	}
	if len(targets) == 0 {
		return ""
	}
	slices.Sort(targets)
	return "(" + strings.Join(targets, ",") + ")"
}

func collapse(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
