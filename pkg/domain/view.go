package domain

// ViewID identifies one connected front-end. It is assigned by the transport.
type ViewID string

// ViewStatus is the lifecycle state of a view inside a registry.
type ViewStatus string

const (
	ViewUnregistered ViewStatus = "unregistered"
	ViewReady        ViewStatus = "ready"
	ViewRemoved      ViewStatus = "removed"
)

// Envelope is an outbound message addressed to a single view.
type Envelope struct {
	ViewID ViewID       `json:"viewId"`
	Data   LayoutUpdate `json:"data"`
}

// LayoutEvent is a UI event delivered to the Layout.
type LayoutEvent struct {
	ViewID ViewID `json:"viewId,omitempty"`
	Target string `json:"target"`
	Data   []any  `json:"data"`
}

// InnerChange notifies observers that an embedded widget was added or removed.
type InnerChange struct {
	WidgetID string `json:"widget_id"`
	Added    bool   `json:"added"`
}

// InnerWidgets is the sink a Layout uses to announce the foreign widgets it embeds.
type InnerWidgets interface {
	AddInner(widgetID string)
	RemoveInner(widgetID string)
}
