/*
Package host manages the widgets served by one process.

Transports address widgets by ID: the Manager mounts Layouts as widgets, hands out the
mounted widget for a given ID, routes raw view messages to it, and closes every widget on
shutdown. Defaults shared by all widgets (logger, hooks, snapshot store, import source)
are configured once on the Manager.
*/
package host
