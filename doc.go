/*
Package canopy connects a declarative component tree to any number of live views.

A Widget runs a render-dispatch loop on its own execution context: it repeatedly renders
its Layout, merges each patch into a model snapshot, and fans the patch out to every
view that announced itself ready. Views send UI events back through the same Widget;
events are queued onto the loop and delivered to the Layout in the order they arrived.

# Concept

Views come and go at any time. A view that joins late receives the whole current model as
one full-replacement update, then only the patches merged after it. A view that goes away
simply stops receiving; the loop never waits for anyone. Transports (websocket, MCP, a
terminal) only need to implement ports.Channel and forward raw messages to Widget.Handle.

# Key Features

  - Ordered Fan-Out: Every view applies patches in render order and converges on the same model.
  - Late Join: Registration and broadcast are serialised, so no patch is lost or duplicated.
  - Isolation: A failing view never stops delivery to the others or the loop itself.
  - Scoped Teardown: Close exits the Layout exactly once and silences every view.

# Usage

	w, err := canopy.Mount(func(r *layout.Renderer) any {
		return layout.H("p", nil, "hello")
	})
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	// Wire a transport: every inbound message goes to Handle, with the view's channel.
	_ = w.Handle(ctx, map[string]any{"type": "client-ready", "viewId": "v1"}, channel)
*/
package canopy
