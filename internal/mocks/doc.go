// Package mocks provides in-memory implementations of the store interfaces
// and the quiz generator for tests.
//
// Each mock exposes function fields that override its default behavior:
//
//	quizzes := mocks.NewMockQuizStore()
//	quizzes.SaveFn = func(ctx context.Context, quiz *domain.Quiz) error {
//	    return errors.New("disk full")
//	}
//
// Store mocks keep their data in memory, so tests that only need a working
// store can use them without setting any function field.
package mocks
