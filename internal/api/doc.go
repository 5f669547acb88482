// Package api is the JSON HTTP surface of the activity server. It maps
// requests onto the content, generation and session services and maps their
// errors onto status codes without exposing internal details.
package api
