// Package gemini implements generation.Generator with Google's Gemini API.
//
// A prompt template is rendered for the requested topic and sent with a JSON
// response schema. Transient failures are retried with exponential backoff and
// jitter. Content blocked by safety filters and malformed responses are not
// retried. Each returned question is decoded through the domain codec, and
// questions the domain would reject are dropped.
package gemini
