package results

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/eval-console/internal/model"
)

func tableRows() []model.DetailedResult {
	c := model.MetricAnswerCorrectness
	return []model.DetailedResult{
		row("q1", map[string]string{c: "0"}),
		row("q2", map[string]string{c: "1"}),
		row("q3", map[string]string{c: "0"}),
		row("q4", nil),
		row("q5", map[string]string{c: "1"}),
	}
}

func questions(rows []model.DetailedResult) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Question
	}
	return out
}

func TestFilterByMetric(t *testing.T) {
	c := model.MetricAnswerCorrectness
	tests := []struct {
		name string
		mode ViewMode
		want []string
	}{
		{name: "all", mode: ViewAll, want: []string{"q1", "q2", "q3", "q4", "q5"}},
		{name: "pass", mode: ViewPass, want: []string{"q2", "q5"}},
		{name: "fail includes missing", mode: ViewFail, want: []string{"q1", "q3", "q4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, questions(FilterByMetric(tableRows(), c, tt.mode)))
		})
	}
}

func TestFilterByMetric_PassFailPartition(t *testing.T) {
	rows := tableRows()
	for _, k := range model.DetailedMetricKeys {
		pass := FilterByMetric(rows, k.Key, ViewPass)
		fail := FilterByMetric(rows, k.Key, ViewFail)
		assert.Equal(t, len(rows), len(pass)+len(fail), k.Key)
	}
}

func TestSortByMetric(t *testing.T) {
	c := model.MetricAnswerCorrectness
	tests := []struct {
		name string
		mode SortMode
		want []string
	}{
		{name: "none keeps order", mode: SortNone, want: []string{"q1", "q2", "q3", "q4", "q5"}},
		{name: "pass first is stable", mode: SortPassFirst, want: []string{"q2", "q5", "q1", "q3", "q4"}},
		{name: "fail first is stable", mode: SortFailFirst, want: []string{"q1", "q3", "q4", "q2", "q5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := tableRows()
			got := SortByMetric(rows, c, tt.mode)
			assert.Equal(t, tt.want, questions(got))
			// 输入不变
			assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5"}, questions(rows))
		})
	}
}

func TestTableView_SelectMetric(t *testing.T) {
	v := NewTableView()
	require.NoError(t, v.SelectMetric(model.MetricCoherence))
	assert.Equal(t, TableView{Metric: model.MetricCoherence, View: ViewAll, Sort: SortPassFirst}, *v)

	v.SetViewMode(ViewFail)
	v.CycleSortMode()
	require.NoError(t, v.SelectMetric(model.MetricConciseness))
	assert.Equal(t, TableView{Metric: model.MetricConciseness, View: ViewFail, Sort: SortFailFirst}, *v,
		"switching metric keeps view and non-none sort")

	require.NoError(t, v.SelectMetric(model.MetricConciseness))
	assert.Equal(t, *NewTableView(), *v, "selecting the same metric resets")

	assert.Error(t, v.SelectMetric("Fluency"))
	assert.Equal(t, *NewTableView(), *v)
}

func TestTableView_RequiresMetric(t *testing.T) {
	v := NewTableView()
	v.SetViewMode(ViewPass)
	v.CycleSortMode()
	assert.Equal(t, *NewTableView(), *v)
}

func TestTableView_CycleSortMode(t *testing.T) {
	v := NewTableView()
	require.NoError(t, v.SelectMetric(model.MetricCoherence))

	var seen []SortMode
	for i := 0; i < 3; i++ {
		v.CycleSortMode()
		seen = append(seen, v.Sort)
	}
	assert.Equal(t, []SortMode{SortFailFirst, SortNone, SortPassFirst}, seen)
}

func TestTableView_Apply(t *testing.T) {
	rows := tableRows()

	v := NewTableView()
	if diff := cmp.Diff(rows, v.Apply(rows)); diff != "" {
		t.Errorf("Apply() without metric mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, v.SelectMetric(model.MetricAnswerCorrectness))
	assert.Equal(t, []string{"q2", "q5", "q1", "q3", "q4"}, questions(v.Apply(rows)))

	v.SetViewMode(ViewFail)
	assert.Equal(t, []string{"q1", "q3", "q4"}, questions(v.Apply(rows)))
}

func TestParseModes(t *testing.T) {
	view, err := ParseViewMode("")
	require.NoError(t, err)
	assert.Equal(t, ViewAll, view)

	sortMode, err := ParseSortMode("fail-first")
	require.NoError(t, err)
	assert.Equal(t, SortFailFirst, sortMode)

	_, err = ParseViewMode("maybe")
	assert.Error(t, err)
	_, err = ParseSortMode("random")
	assert.Error(t, err)
}
