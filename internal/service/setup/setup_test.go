package setup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/repository"
)

func ptr[T any](v T) *T {
	return &v
}

func newTestStore(t *testing.T, snaps repository.SnapshotStore) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), snaps, nil)
	require.NoError(t, err)
	return s
}

func TestStore_EmptyByDefault(t *testing.T) {
	s := newTestStore(t, nil)
	st := s.State()
	assert.Empty(t, st.SelectedAgentIDs)
	assert.Equal(t, model.EvaluationType(""), st.EvaluationType)
	assert.Nil(t, st.Region)
	assert.False(t, s.Ready())
}

func TestStore_ApplyPersists(t *testing.T) {
	ctx := context.Background()
	snaps := repository.NewMemorySnapshotStore()
	s := newTestStore(t, snaps)

	_, err := s.Apply(ctx, Update{
		SelectedAgentIDs: ptr([]string{model.AgentPharosUDX}),
		EvaluationType:   ptr(model.EvaluationPointwise),
		Region:           ptr("Universal Studios Japan"),
	})
	require.NoError(t, err)
	assert.True(t, s.Ready())

	restored := newTestStore(t, snaps)
	st := restored.State()
	assert.Equal(t, []string{model.AgentPharosUDX}, st.SelectedAgentIDs)
	assert.Equal(t, model.EvaluationPointwise, st.EvaluationType)
	require.NotNil(t, st.Region)
	assert.Equal(t, "Universal Studios Japan", *st.Region)
}

func TestStore_RegionClearedWithoutPharos(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	_, err := s.Apply(ctx, Update{
		SelectedAgentIDs: ptr([]string{model.AgentPharosUDX}),
		Region:           ptr("Universal Orlando Resort"),
	})
	require.NoError(t, err)

	st, err := s.Apply(ctx, Update{SelectedAgentIDs: ptr([]string{model.AgentHRCopilot})})
	require.NoError(t, err)
	assert.Nil(t, st.Region)

	// 直接调用
	_, err = s.Apply(ctx, Update{SelectedAgentIDs: ptr([]string{model.AgentPharosUDX}), Region: ptr("Universal Orlando Resort")})
	require.NoError(t, err)
	require.NoError(t, s.ClearRegionIfNotPharos(ctx, []string{model.AgentPharosUDX}))
	assert.NotNil(t, s.State().Region)
	require.NoError(t, s.ClearRegionIfNotPharos(ctx, []string{model.AgentLegalCopilot}))
	assert.Nil(t, s.State().Region)
}

func TestStore_ApplyRejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	_, err := s.Apply(ctx, Update{EvaluationType: ptr(model.EvaluationType("LISTWISE"))})
	assert.ErrorIs(t, err, ErrInvalidSetup)

	_, err = s.Apply(ctx, Update{Region: ptr("Atlantis")})
	assert.ErrorIs(t, err, ErrInvalidSetup)

	// 空值表示清除
	_, err = s.Apply(ctx, Update{EvaluationType: ptr(model.EvaluationType("")), GroundTruthID: ptr("")})
	assert.NoError(t, err)
}

func TestStore_Validate(t *testing.T) {
	tests := []struct {
		name     string
		update   Update
		problems []string
	}{
		{name: "no agent", update: Update{}, problems: []string{"Please select an agent."}},
		{name: "pharos without region", update: Update{SelectedAgentIDs: ptr([]string{model.AgentPharosUDX})}, problems: []string{"Select a Region for Pharos UDX."}},
		{name: "pharos with region", update: Update{SelectedAgentIDs: ptr([]string{model.AgentPharosUDX}), Region: ptr(Regions[0])}},
		{name: "hr", update: Update{SelectedAgentIDs: ptr([]string{model.AgentHRCopilot})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, nil)
			_, err := s.Apply(context.Background(), tt.update)
			require.NoError(t, err)

			err = s.Validate()
			if tt.problems == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSetup)
			assert.Equal(t, tt.problems, err.(*ValidationError).Problems)
		})
	}
}

func TestStore_Proceed(t *testing.T) {
	ctx := context.Background()

	t.Run("pharos carries region", func(t *testing.T) {
		s := newTestStore(t, nil)
		_, err := s.Apply(ctx, Update{
			SelectedAgentIDs: ptr([]string{model.AgentPharosUDX}),
			EvaluationType:   ptr(model.EvaluationPairwise),
			Region:           ptr(Regions[2]),
		})
		require.NoError(t, err)

		p, err := s.Proceed()
		require.NoError(t, err)
		assert.Equal(t, navigation.Params{
			Agent: model.AgentPharosUDX, Type: "PAIRWISE", Region: Regions[2], BackRef: navigation.SetupPath,
		}, p)
	})

	t.Run("other agents omit region", func(t *testing.T) {
		s := newTestStore(t, nil)
		_, err := s.Apply(ctx, Update{SelectedAgentIDs: ptr([]string{model.AgentHRCopilot})})
		require.NoError(t, err)

		p, err := s.Proceed()
		require.NoError(t, err)
		assert.Equal(t, navigation.Params{Agent: model.AgentHRCopilot, BackRef: navigation.SetupPath}, p)
	})

	t.Run("invalid setup", func(t *testing.T) {
		s := newTestStore(t, nil)
		_, err := s.Proceed()
		assert.ErrorIs(t, err, ErrInvalidSetup)
	})
}

func TestStore_StateIsCopy(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.Apply(context.Background(), Update{SelectedAgentIDs: ptr([]string{model.AgentHRCopilot})})
	require.NoError(t, err)

	st := s.State()
	st.SelectedAgentIDs[0] = "mutated"
	assert.Equal(t, []string{model.AgentHRCopilot}, s.State().SelectedAgentIDs)
}
