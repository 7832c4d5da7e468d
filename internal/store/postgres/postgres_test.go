package postgres

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockStore returns a Store backed by sqlmock. The cleanup asserts that
// every declared expectation was met.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return &Store{db: db}, mock
}
