package store_test

import (
	"path/filepath"
	"testing"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store/storetest"
)

func TestSQLiteConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		s, err := store.Open(filepath.Join(t.TempDir(), "oracle.db"))
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		return s
	})
}
