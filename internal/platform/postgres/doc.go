// Package postgres implements the content, session result, generation
// request and task stores on PostgreSQL through the pgx driver.
//
// Content documents of all three kinds share one table keyed by ID and
// stored as JSON, so an ID can never name two kinds of content.
package postgres
