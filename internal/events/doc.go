// Package events provides types and interfaces for an event-driven architecture.
//
// Engines and services emit events without knowing which handlers will process
// them. Session lifecycle events drive resume-state and result persistence, and
// generation request events are turned into background tasks.
//
// The primary components are:
// - Event: a typed envelope with a JSON payload
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
