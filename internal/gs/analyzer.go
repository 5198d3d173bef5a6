package gs

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/eddic/gr-gs/internal/gf"
)

// Constellation maps each field symbol to the signal point it is
// transmitted as. Its length must equal the field size.
type Constellation []complex128

// DefaultConstellation returns evenly spaced real amplitudes centred on zero,
// 2s-(q-1) for symbol s. For q = 2 this is the usual -1/+1 mapping.
func DefaultConstellation(q int) Constellation {
	c := make(Constellation, q)
	for s := range c {
		c[s] = complex(float64(2*s-(q-1)), 0)
	}
	return c
}

// PSKConstellation places q points evenly on the unit circle.
func PSKConstellation(q int) Constellation {
	c := make(Constellation, q)
	for s := range c {
		c[s] = cmplx.Rect(1, 2*math.Pi*float64(s)/float64(q))
	}
	return c
}

// Metric scores one candidate codeword, given as constellation points,
// starting from the committed running digital sum. Lower scores are better.
// It must be deterministic and must not retain points.
type Metric interface {
	Name() string
	Score(start complex128, points []complex128) (score float64, end complex128)
}

type metricFunc struct {
	name  string
	score func(start complex128, points []complex128) (float64, complex128)
}

func (m metricFunc) Name() string { return m.name }

func (m metricFunc) Score(start complex128, points []complex128) (float64, complex128) {
	return m.score(start, points)
}

func sqabs(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

var builtinMetrics = map[string]Metric{
	// minimum squared weight: energy of the running digital sum
	"msw": metricFunc{"msw", func(rds complex128, points []complex128) (float64, complex128) {
		var sum float64
		for _, p := range points {
			rds += p
			sum += sqabs(rds)
		}
		return sum, rds
	}},
	// maximum running digital sum magnitude
	"mrds": metricFunc{"mrds", func(rds complex128, points []complex128) (float64, complex128) {
		var peak float64
		for _, p := range points {
			rds += p
			if m := cmplx.Abs(rds); m > peak {
				peak = m
			}
		}
		return peak, rds
	}},
	// squared weight with the closing sum weighted by the word length
	"wrds": metricFunc{"wrds", func(rds complex128, points []complex128) (float64, complex128) {
		var sum float64
		for _, p := range points {
			rds += p
			sum += sqabs(rds)
		}
		return sum + float64(len(points))*sqabs(rds), rds
	}},
	// closing running digital sum only
	"rds": metricFunc{"rds", func(rds complex128, points []complex128) (float64, complex128) {
		for _, p := range points {
			rds += p
		}
		return sqabs(rds), rds
	}},
}

// Metrics lists the built-in selection methods.
func Metrics() []string {
	names := make([]string, 0, len(builtinMetrics))
	for name := range builtinMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MetricByName returns a built-in selection method.
func MetricByName(name string) (Metric, error) {
	m, ok := builtinMetrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown method %q", ErrBadSelectionMethod, name)
	}
	return m, nil
}

// AnalyzerState is the committed running state of an Analyzer.
type AnalyzerState struct {
	RDS   complex128
	Words uint64
}

// Selection is the outcome of evaluating a candidate set. State is what the
// analyzer becomes once the selection is committed.
type Selection struct {
	Index int
	Score float64
	State AnalyzerState
}

// Analyzer ranks candidate codewords by a Metric composed with the running
// digital sum of everything committed so far.
type Analyzer struct {
	field         *gf.Field
	metric        Metric
	constellation Constellation
	state         AnalyzerState
	points        []complex128
}

// NewAnalyzer creates an analyzer using a built-in method. A nil
// constellation selects DefaultConstellation.
func NewAnalyzer(field *gf.Field, method string, constellation Constellation) (*Analyzer, error) {
	m, err := MetricByName(method)
	if err != nil {
		return nil, err
	}
	return NewAnalyzerWithMetric(field, m, constellation)
}

// NewAnalyzerWithMetric creates an analyzer with a custom metric.
func NewAnalyzerWithMetric(field *gf.Field, metric Metric, constellation Constellation) (*Analyzer, error) {
	if field == nil {
		return nil, ErrBadFieldSize
	}
	if metric == nil {
		return nil, fmt.Errorf("%w: nil metric", ErrBadSelectionMethod)
	}
	if constellation == nil {
		constellation = DefaultConstellation(field.Size())
	}
	if len(constellation) != field.Size() {
		return nil, fmt.Errorf("%w: constellation has %d points for %s",
			ErrBadSelectionMethod, len(constellation), field)
	}

	c := make(Constellation, len(constellation))
	copy(c, constellation)
	return &Analyzer{
		field:         field,
		metric:        metric,
		constellation: c,
	}, nil
}

// Select scores every candidate from the committed state and returns the
// best. Ties go to the lowest index and a NaN score ranks last. The
// committed state is not modified.
func (a *Analyzer) Select(candidates []gf.Word) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("%w: no candidates", ErrBadInputLength)
	}

	best := Selection{Index: -1}
	for i, w := range candidates {
		if w.Field() != a.field {
			return Selection{}, fmt.Errorf("%w: candidate %d: %v", ErrBadInputLength, i, gf.ErrFieldMismatch)
		}

		score, end := a.metric.Score(a.state.RDS, a.mapPoints(w))
		if math.IsNaN(score) {
			score = math.Inf(1)
		}
		if best.Index < 0 || score < best.Score {
			best = Selection{
				Index: i,
				Score: score,
				State: AnalyzerState{RDS: end, Words: a.state.Words + 1},
			}
		}
	}
	return best, nil
}

// Commit advances the running state to a selection's outcome.
func (a *Analyzer) Commit(sel Selection) {
	a.state = sel.State
}

// State returns the committed running state.
func (a *Analyzer) State() AnalyzerState { return a.state }

// Method returns the metric name.
func (a *Analyzer) Method() string { return a.metric.Name() }

// Constellation returns a copy of the symbol mapping.
func (a *Analyzer) Constellation() Constellation {
	c := make(Constellation, len(a.constellation))
	copy(c, a.constellation)
	return c
}

// Point maps one symbol to its constellation point.
func (a *Analyzer) Point(s gf.Symbol) complex128 { return a.constellation[s] }

// Reset clears the running state.
func (a *Analyzer) Reset() {
	a.state = AnalyzerState{}
}

func (a *Analyzer) mapPoints(w gf.Word) []complex128 {
	if cap(a.points) < w.Len() {
		a.points = make([]complex128, w.Len())
	}
	points := a.points[:w.Len()]
	for i := range points {
		points[i] = a.constellation[w.At(i)]
	}
	return points
}
