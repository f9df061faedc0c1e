/*
Package domain contains the core model and wire types shared by every canopy component.

It defines what flows through the render-dispatch loop: the patches a Layout emits, the
snapshot they are merged into, the events views send back, and the envelopes that carry
patches to views. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - LayoutUpdate: A patch. Path "" replaces the whole model, otherwise Path is an RFC 6901
    JSON pointer to the replaced subtree.
  - Snapshot: The merged result of every patch so far, with a monotonically increasing Revision.
  - LayoutEvent: A UI event addressed to a handler target inside the Layout.
  - Inbound messages: ClientReady, DOMEvent, ClientRemoved and UnknownMessage, decoded from the
    raw messages views send.
  - Envelope: The outbound message addressed to a single view.
*/
package domain
