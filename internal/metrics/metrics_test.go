package metrics

import (
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddic/gr-gs/internal/gf"
	"github.com/eddic/gr-gs/internal/gs"
)

func TestCollector_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.Observe(gs.Result{Index: 2, Score: 4}, gs.AnalyzerState{RDS: complex(3, -1), Words: 1})
	c.Observe(gs.Result{Index: 2, Score: 1}, gs.AnalyzerState{RDS: complex(-2, 0), Words: 2})
	c.Observe(gs.Result{Index: 0, Score: 9}, gs.AnalyzerState{RDS: complex(1, 0.5), Words: 3})

	assert.Equal(t, 3.0, testutil.ToFloat64(c.words))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.selections.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.selections.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rdsReal))
	assert.Equal(t, 0.5, testutil.ToFloat64(c.rdsImag))
	assert.Equal(t, 1, testutil.CollectAndCount(c.score))
}

func TestCollector_ErrorsAndBytes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.Error("encode")
	c.Error("encode")
	c.AddBytes(100)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.errors.WithLabelValues("encode")))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.bytes))
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestCollector_ObservesScrambler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	g, err := gs.NewGuidedScrambler(gs.Config{
		FieldSize:        2,
		CodewordLength:   8,
		AugmentingLength: 2,
		Multiplier:       []gf.Symbol{1, 1},
	}, gs.WithObserver(c))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := g.EncodeSymbols([]gf.Symbol{1, 0, 1, 1, 0, 1})
		require.NoError(t, err)
	}

	assert.Equal(t, 5.0, testutil.ToFloat64(c.words))
	assert.Equal(t, real(g.Analyzer().State().RDS), testutil.ToFloat64(c.rdsReal))

	var total float64
	for i := 0; i < g.Candidates(); i++ {
		total += testutil.ToFloat64(c.selections.WithLabelValues(strconv.Itoa(i)))
	}
	assert.Equal(t, 5.0, total)
}
