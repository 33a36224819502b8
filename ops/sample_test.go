package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleRandomSeedIsDeterministic(t *testing.T) {
	tb := sampleTable(t)
	seed := int64(42)
	a, err := Sample(tb, SampleSpec{Method: SampleRandom, Size: 3, Seed: &seed})
	require.NoError(t, err)
	b, err := Sample(tb, SampleSpec{Method: SampleRandom, Size: 3, Seed: &seed})
	require.NoError(t, err)

	require.Equal(t, a.RowCount(), b.RowCount())
	for i := range a.Rows {
		for j := range a.Rows[i] {
			assert.True(t, a.Rows[i][j].Equal(b.Rows[i][j]))
		}
	}
}

func TestSampleSystematicEveryNth(t *testing.T) {
	tb := sampleTable(t)
	out, err := Sample(tb, SampleSpec{Method: SampleSystematic, Size: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, out.RowCount())
}

func TestSampleStratifiedProportional(t *testing.T) {
	tb := sampleTable(t)
	out, err := Sample(tb, SampleSpec{Method: SampleStratified, Size: 3, StratifyColumn: "city"})
	require.NoError(t, err)
	assert.LessOrEqual(t, out.RowCount(), 5)
}
