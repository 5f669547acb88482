// Package session runs guided sessions for the HTTP surface.
//
// A Controller owns the three engines and the registry that keeps at most one
// of them active. It loads content through the stores, starts the matching
// engine, and forwards engine-specific actions only while that engine is the
// active one. A Recorder subscribes to session events and persists resume
// state after each step and a result on completion.
package session
