// Package engine defines the lifecycle contract shared by every guided session
// type and the bookkeeping that backs it.
//
// A concrete engine embeds *Base and supplies Hooks for preparation, teardown
// and progress. Base serializes all state changes behind one mutex: lifecycle
// calls, engine-specific actions and deferred callbacks (timer ticks, delays,
// speech completions) all re-enter through Base so no two steps of one engine
// are ever active at once.
//
// Engines are owned instances. The controller keeps at most one of them active
// through a Registry.
package engine
