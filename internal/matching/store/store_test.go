package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/piggy/internal/matching/store"
)

func TestStore_FindMatch(t *testing.T) {
	ctx := context.Background()
	s := store.New(filepath.Join(t.TempDir(), "aliases", "merchants.json"))

	got, err := s.FindMatch(ctx, "anything")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.CreateMapping(ctx, "amzn", "Amazon"))
	require.NoError(t, s.CreateMapping(ctx, "amzn mktp", "Amazon Marketplace"))
	require.NoError(t, s.CreateMapping(ctx, "apple", "Apple"))
	require.NoError(t, s.CreateMapping(ctx, "APPLE", "Apple Store"))

	tests := []struct {
		name     string
		merchant string
		want     string
	}{
		{name: "LongestPattern", merchant: "AMZN MKTP US*2K4", want: "Amazon Marketplace"},
		{name: "ShorterPattern", merchant: "Amzn Digital", want: "Amazon"},
		{name: "NewestOnTie", merchant: "apple.com/bill", want: "Apple Store"},
		{name: "NoMatch", merchant: "Best Buy", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindMatch(ctx, tt.merchant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "merchants.json")

	require.NoError(t, store.New(path).CreateMapping(ctx, "bb", "Best Buy"))

	got, err := store.New(path).FindMatch(ctx, "BB #123")
	require.NoError(t, err)
	assert.Equal(t, "Best Buy", got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merchants.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := store.New(path).FindMatch(context.Background(), "x")
	require.Error(t, err)
}
