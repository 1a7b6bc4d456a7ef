package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	open := Start()
	assert.Zero(t, open.Duration())

	s := Measure(func() { time.Sleep(2 * time.Millisecond) })
	assert.GreaterOrEqual(t, s.Duration(), 2*time.Millisecond)
	assert.InDelta(t, s.Duration().Seconds(), s.Seconds(), 1e-12)
	assert.False(t, s.End.Before(s.Start))
}

func TestTimeTrackerStats(t *testing.T) {
	tr := NewTimeTracker("blur")
	assert.Equal(t, "blur", tr.Name())
	assert.Zero(t, tr.Stats().Count)

	for _, ms := range []int{1, 2, 3, 4, 10} {
		tr.Record(time.Duration(ms) * time.Millisecond)
	}

	st := tr.Stats()
	require.EqualValues(t, 5, st.Count)
	assert.Equal(t, time.Millisecond, st.Min)
	assert.Equal(t, 10*time.Millisecond, st.Max)
	assert.Equal(t, 20*time.Millisecond, st.Total)
	assert.Equal(t, 4*time.Millisecond, st.Mean)
	assert.InDelta(t, float64(3*time.Millisecond), float64(st.P50), float64(10*time.Microsecond))
	assert.InDelta(t, float64(10*time.Millisecond), float64(st.P99), float64(20*time.Microsecond))

	tr.Reset()
	assert.Zero(t, tr.Stats().Count)
	assert.Zero(t, tr.Stats().Max)
}

func TestTimeTrackerSubMicrosecondResolution(t *testing.T) {
	tr := NewTimeTracker("single")
	d := 23*time.Microsecond + 456*time.Nanosecond
	tr.Record(d)

	st := tr.Stats()
	assert.Equal(t, d, st.Mean)
	assert.InEpsilon(t, float64(d), float64(st.P50), 0.001)
	assert.InEpsilon(t, float64(d), float64(st.P99), 0.001)
	assert.GreaterOrEqual(t, st.P99, st.Min, "percentiles are not truncated below the minimum")
}

func TestTimeTrackerClampsOutOfRange(t *testing.T) {
	tr := NewTimeTracker("clamp")
	tr.Record(0)
	tr.Record(time.Hour)

	st := tr.Stats()
	assert.EqualValues(t, 2, st.Count)
	assert.Equal(t, time.Hour, st.Max)
	assert.InEpsilon(t, float64(10*time.Minute), float64(st.P99), 0.001)
}

func TestTimeTrackerConcurrentRecord(t *testing.T) {
	tr := NewTimeTracker("concurrent")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				done := tr.StartOperation()
				done()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 800, tr.Stats().Count)
}
