/*
Package runner implements the render-dispatch loop and the inbound event router.

It acts as the bridge between a Layout (the component-tree renderer) and the views attached
to a widget. The Runner drives the Layout: it waits for each render, merges the resulting
patch into the snapshot and fans it out through the Registry. The Router takes raw messages
from transports and turns them into view registrations, removals, or events scheduled onto
the loop's execution context.

# Key Components

  - Runner: Enters the Layout, loops over Render and Publish, and always exits the Layout.
  - Router: Decodes inbound messages and dispatches them without ever blocking the caller.
  - Scheduler: The hand-off into the loop's execution context (see package executor).

# Usage

	reg := registry.New()
	r := runner.NewRunner(layout, reg, runner.WithLogger(logger))

	exec, err := executor.Spawn(ctx, r.Run)
	if err != nil {
		return err
	}
	router := runner.NewRouter(layout, reg, exec)
	_ = router.Route(ctx, map[string]any{"type": "client-ready", "viewId": "A"}, channel)
*/
package runner
