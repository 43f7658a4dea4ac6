package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"milestone-tracker/internal/store"
	"milestone-tracker/internal/store/storetest"
)

func setup(t *testing.T) *Store {
	t.Helper()
	_ = godotenv.Load("../../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := Open(context.Background(), dbURL, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s := setup(t)
		_, err := s.pool.Exec(context.Background(), `TRUNCATE milestones, users`)
		require.NoError(t, err)
		return s
	})
}
