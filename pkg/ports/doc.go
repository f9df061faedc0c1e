/*
Package ports defines the interfaces canopy's core depends on.

These interfaces decouple the render-dispatch loop from the component renderer it drives,
from the transports that carry patches to views, and from where snapshots are mirrored.

# Key Interfaces

  - Layout: The component-tree renderer. Produces patches and consumes UI events.
  - Channel: The per-view outbound pipe. Sends must not block.
  - SnapshotStore: Optional persistence of the latest model snapshot of each widget.
  - InnerWidgetBinder: Implemented by Layouts that embed foreign widgets.
*/
package ports
