package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Inbound message types sent by views.
const (
	MessageClientReady   = "client-ready"
	MessageDOMEvent      = "dom-event"
	MessageClientRemoved = "client-removed"
)

// InboundMessage is one of ClientReady, DOMEvent, ClientRemoved or UnknownMessage.
type InboundMessage interface {
	Kind() string
}

// ClientReady announces that a view can receive patches.
type ClientReady struct {
	ViewID ViewID
}

func (ClientReady) Kind() string { return MessageClientReady }

// DOMEvent carries a UI event from a view. ViewID is empty when the sender did not name one.
type DOMEvent struct {
	ViewID ViewID
	Event  LayoutEvent
}

func (DOMEvent) Kind() string { return MessageDOMEvent }

// ClientRemoved announces that a view went away.
type ClientRemoved struct {
	ViewID ViewID
}

func (ClientRemoved) Kind() string { return MessageClientRemoved }

// UnknownMessage is any message whose type is not recognized. It is ignored by routers.
type UnknownMessage struct {
	Type string
	Raw  map[string]any
}

func (m UnknownMessage) Kind() string { return m.Type }

type rawInbound struct {
	Type   string `mapstructure:"type"`
	ViewID string `mapstructure:"viewId"`
	Data   any    `mapstructure:"data"`
}

type rawEventPayload struct {
	Target string `mapstructure:"target"`
	Data   []any  `mapstructure:"data"`
}

// DecodeInbound decodes a raw view message into its typed variant.
// Field names are matched case-insensitively, so both "viewId" and "viewID" are accepted,
// and numeric view ids are converted to strings.
func DecodeInbound(raw map[string]any) (InboundMessage, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty message", ErrMalformedMessage)
	}

	var msg rawInbound
	if err := weakDecode(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.Type {
	case MessageClientReady, MessageDOMEvent, MessageClientRemoved:
	default:
		return UnknownMessage{Type: msg.Type, Raw: raw}, nil
	}

	id := ViewID(msg.ViewID)
	switch msg.Type {
	case MessageClientReady, MessageClientRemoved:
		if id == "" {
			return nil, fmt.Errorf("%w: %s without viewId", ErrMalformedMessage, msg.Type)
		}
		if msg.Type == MessageClientReady {
			return ClientReady{ViewID: id}, nil
		}
		return ClientRemoved{ViewID: id}, nil
	}

	// dom-event: the view id is optional and left empty when absent.
	payload, ok := msg.Data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: dom-event data must be an object", ErrMalformedMessage)
	}
	var ev rawEventPayload
	if err := weakDecode(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if ev.Target == "" {
		return nil, fmt.Errorf("%w: dom-event without target", ErrMalformedMessage)
	}
	if ev.Data == nil {
		ev.Data = []any{}
	}
	return DOMEvent{
		ViewID: id,
		Event:  LayoutEvent{ViewID: id, Target: ev.Target, Data: ev.Data},
	}, nil
}

// DecodeInboundJSON decodes a JSON encoded view message.
func DecodeInboundJSON(data []byte) (InboundMessage, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return DecodeInbound(raw)
}

func weakDecode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
