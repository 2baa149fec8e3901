package model

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1733050800000)

	tests := []struct {
		name    string
		prefix  string
		n       int
		pattern string
	}{
		{name: "dataset", prefix: "gt", n: 9, pattern: `^gt_1733050800000_[0-9a-f]{9}$`},
		{name: "evaluation", prefix: "evaluation", n: 7, pattern: `^evaluation_1733050800000_[0-9a-f]{7}$`},
		{name: "long suffix", prefix: "x", n: 40, pattern: `^x_1733050800000_[0-9a-f]{40}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewID(tt.prefix, now, tt.n)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), id)
		})
	}

	assert.NotEqual(t, NewID("gt", now, 9), NewID("gt", now, 9))
}

func TestGroundTruth_Clone(t *testing.T) {
	gt := GroundTruth{
		ID:        "a",
		Tags:      []string{"HR"},
		SchemaMap: SchemaMap{FieldQuestion: "Q"},
		Metadata:  JSON{"k": "v"},
		Sample:    []SampleRow{{Index: 1, Meta: map[string]string{"category": "c"}}},
	}
	c := gt.Clone()
	c.Tags[0] = "x"
	c.SchemaMap[FieldQuestion] = "x"
	c.Metadata["k"] = "x"
	c.Sample[0].Meta["category"] = "x"

	assert.Equal(t, "HR", gt.Tags[0])
	assert.Equal(t, "Q", gt.SchemaMap[FieldQuestion])
	assert.Equal(t, "v", gt.Metadata["k"])
	assert.Equal(t, "c", gt.Sample[0].Meta["category"])
}

func TestJSON_ValueScan(t *testing.T) {
	j := JSON{"source": "hr.csv", "rows": float64(3)}
	v, err := j.Value()
	assert.NoError(t, err)

	var back JSON
	assert.NoError(t, back.Scan(v))
	assert.Equal(t, j, back)

	var empty JSON
	assert.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
	assert.Error(t, empty.Scan(42))
}
