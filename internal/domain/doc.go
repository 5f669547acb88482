// Package domain holds the activity content model: quizzes and their question
// variants, workouts with phases and exercises, listening sets of language
// pairs, session results, resume records and generation requests.
package domain
