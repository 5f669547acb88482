// Package testdb provides helpers for database integration tests.
//
// Tests run against the database named by DATABASE_URL or SCRY_TEST_DB_URL
// and are skipped when neither is set. Each test body runs in its own
// transaction, which is rolled back when the test completes, so tests can
// run in parallel without cleaning up after themselves:
//
//	func TestQuizStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        quizzes := postgres.NewQuizStore(tx, nil)
//	        // ...
//	    })
//	}
//
// The schema is migrated once per process from the embedded migrations.
package testdb
