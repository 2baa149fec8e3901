package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleState struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

func TestSaveAndLoadState(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()

	var missing sampleState
	ok, err := LoadState(ctx, store, "sample", 0, &missing)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SaveState(ctx, store, "sample", 0, sampleState{Names: []string{"a"}, Count: 1}))

	raw, _, err := store.Load(ctx, "sample")
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"names":["a"],"count":1},"version":0}`, string(raw))

	var got sampleState
	ok, err = LoadState(ctx, store, "sample", 0, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleState{Names: []string{"a"}, Count: 1}, got)
}

func TestLoadState_Errors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantVersion bool
	}{
		{name: "newer version", data: `{"state":{},"version":2}`, wantVersion: true},
		{name: "invalid envelope", data: `[1,2]`},
		{name: "invalid state", data: `{"state":{"count":"many"},"version":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemorySnapshotStore()
			require.NoError(t, store.Save(ctx, "sample", []byte(tt.data)))

			var st sampleState
			_, err := LoadState(ctx, store, "sample", 0, &st)
			require.Error(t, err)
			if tt.wantVersion {
				assert.ErrorIs(t, err, ErrSnapshotVersion)
			}
		})
	}
}

func TestLoadState_MissingStateAndUnknownFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()
	require.NoError(t, store.Save(ctx, "sample", []byte(`{"version":0,"extra":true}`)))

	var st sampleState
	ok, err := LoadState(ctx, store, "sample", 0, &st)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, st)
}
