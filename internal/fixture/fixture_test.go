package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/eval-console/internal/model"
)

func TestLoad(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	assert.Len(t, d.Agents, 3)
	assert.Len(t, d.Trends["hr_copilot"], 12)
	assert.Len(t, d.Trends["legal_copilot"], 10)
	assert.Len(t, d.Trends["pharos_udx"], 14)
	assert.Len(t, d.RecentEvaluations, 3)
	assert.Len(t, d.GroundTruths, 5)
	assert.Len(t, d.ProgressSteps, 5)
	assert.NotEmpty(t, d.Detailed)
}

func TestData_Runs(t *testing.T) {
	d := MustLoad()

	tests := []struct {
		name        string
		agent       string
		wantLen     int
		wantFirstID string
	}{
		{name: "hr copilot", agent: "hr_copilot", wantLen: 12, wantFirstID: "hr_copilot-1"},
		{name: "pharos", agent: "pharos_udx", wantLen: 14, wantFirstID: "pharos_udx-1"},
		{name: "unknown agent", agent: "nope", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := d.Runs(tt.agent)
			require.Len(t, runs, tt.wantLen)
			if tt.wantLen == 0 {
				return
			}
			assert.Equal(t, tt.wantFirstID, runs[0].ID)

			experiments := 0
			for i, r := range runs {
				if r.IsExperiment {
					experiments++
					assert.GreaterOrEqual(t, i, len(runs)-3, "only the latest three are experiments")
				}
			}
			assert.Equal(t, 3, experiments)
		})
	}
}

func TestData_AggregatedMatchesDetailed(t *testing.T) {
	d := MustLoad()

	for _, m := range model.DetailedMetricKeys {
		pass := 0
		for _, row := range d.Detailed {
			if row.Score(m.Key) == "1" {
				pass++
			}
		}
		want := float64(pass) * 100 / float64(len(d.Detailed))
		assert.InDelta(t, want, d.Aggregated.AggregatedResults[m.Key], 0.01, m.Key)
	}
}

func TestData_SeedGroundTruthsAreCopies(t *testing.T) {
	d := MustLoad()

	seeds := d.SeedGroundTruths()
	seeds[0].Tags[0] = "changed"
	seeds[0].Sample[0].Question = "changed"

	again := d.SeedGroundTruths()
	assert.Equal(t, "HR", again[0].Tags[0])
	assert.Equal(t, "What is the company vacation policy?", again[0].Sample[0].Question)
}
