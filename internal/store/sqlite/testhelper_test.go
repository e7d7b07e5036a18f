// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package sqlite_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chakany/noah/internal/store"
	"github.com/chakany/noah/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// testDBPath returns a temp SQLite database path cleaned up with the test.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "noah-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name+".db")
}

func testStore(t *testing.T, name string) *sqlite.EventStore {
	t.Helper()
	s, err := sqlite.NewEventStore(testDBPath(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insertEvent(t *testing.T, s *sqlite.EventStore, id, pubkey string, kind int, content, tags string, embedding []float32) {
	t.Helper()
	err := s.Insert(context.Background(), &store.Event{
		ID:        id,
		Pubkey:    pubkey,
		CreatedAt: 1700000000,
		Kind:      kind,
		Content:   content,
		Tags:      json.RawMessage(tags),
	}, embedding)
	require.NoError(t, err)
}
