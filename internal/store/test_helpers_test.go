package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/model"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seed inserts records in one transaction.
func seed(t *testing.T, s *Store, records ...model.Entity) {
	t.Helper()
	err := s.Update(context.Background(), func(tx *Tx) error {
		ctx := context.Background()
		for _, r := range records {
			var err error
			switch v := r.(type) {
			case model.User:
				err = tx.InsertUser(ctx, v)
			case model.Post:
				err = tx.InsertPost(ctx, v)
			case model.Comment:
				err = tx.InsertComment(ctx, v)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func intPtr(v int) *int { return &v }
