// Package service contains the application use cases that sit between the
// HTTP surface and the stores: content management and import, and quiz
// generation requests.
//
// Services receive their stores through constructors and translate store
// errors into the sentinels declared in errors.go, which the API layer maps to
// status codes. Unexpected failures are wrapped in ServiceError.
//
// Running sessions is the job of the session subpackage.
package service
