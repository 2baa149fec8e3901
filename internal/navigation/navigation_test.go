package navigation

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromValuesRoundTrip(t *testing.T) {
	v, err := url.ParseQuery("id=evaluation_1_abc&agent=pharos_udx&type=POINTWISE&groundTruthId=gt_1&region=Universal+Studios+Japan")
	require.NoError(t, err)

	p := FromValues(v)
	assert.Equal(t, Params{
		ID: "evaluation_1_abc", Agent: "pharos_udx", Type: "POINTWISE",
		GroundTruthID: "gt_1", Region: "Universal Studios Japan",
	}, p)
	assert.Equal(t, p, FromValues(p.Values()))
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name        string
		params      Params
		wantMissing []string
	}{
		{name: "complete", params: Params{ID: "e", Agent: "a", Type: "POINTWISE"}},
		{name: "missing id", params: Params{Agent: "a", Type: "POINTWISE"}, wantMissing: []string{KeyID}},
		{name: "all missing", params: Params{}, wantMissing: []string{KeyID, KeyAgent, KeyType}},
		{name: "values are opaque", params: Params{ID: " ", Agent: "?", Type: "whatever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Require(KeyID, KeyAgent, KeyType)
			if tt.wantMissing == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrMissingContext)
			var mc *MissingContextError
			require.True(t, errors.As(err, &mc))
			assert.Equal(t, tt.wantMissing, mc.Missing)
		})
	}
}

func TestURL(t *testing.T) {
	assert.Equal(t, SetupPath, Params{}.URL(SetupPath))
	assert.Equal(t, "/ground_truth?agent=hr_copilot&backRef=%2Fevaluation%2Fsetup&type=PAIRWISE",
		Params{Agent: "hr_copilot", Type: "PAIRWISE", BackRef: SetupPath}.URL(GroundTruthPath))
}
