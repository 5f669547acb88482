// Package generation defines the boundary to AI quiz generation. A Generator
// turns a topic into a validated quiz document without exposing which
// language model produced it.
package generation
