package telemetry

import "iter"

// Sample is one tick's entry in the metrics series.
type Sample struct {
	Tick        int     `csv:"tick"`
	Population  int     `csv:"population"`
	Pollution   float64 `csv:"pollution"`
	Temperature float64 `csv:"temperature"`
}

// Series holds the append-only per-tick metrics: population, pollution and
// temperature. The zero value is ready to use.
type Series struct {
	population  []int
	pollution   []float64
	temperature []float64
}

// SeriesState is the serializable form of a Series.
type SeriesState struct {
	Population  []int     `json:"population"`
	Pollution   []float64 `json:"pollution"`
	Temperature []float64 `json:"temperature"`
}

// Append records one tick.
func (s *Series) Append(population int, pollution, temperature float64) {
	s.population = append(s.population, population)
	s.pollution = append(s.pollution, pollution)
	s.temperature = append(s.temperature, temperature)
}

// Len returns the number of recorded ticks.
func (s Series) Len() int {
	return len(s.population)
}

// Clone returns a copy that shares no memory with s.
func (s Series) Clone() Series {
	return Series{
		population:  append([]int(nil), s.population...),
		pollution:   append([]float64(nil), s.pollution...),
		temperature: append([]float64(nil), s.temperature...),
	}
}

// Population iterates the population series.
func (s Series) Population() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, v := range s.population {
			if !yield(v) {
				return
			}
		}
	}
}

// Pollution iterates the pollution series.
func (s Series) Pollution() iter.Seq[float64] {
	return values(s.pollution)
}

// Temperature iterates the temperature series.
func (s Series) Temperature() iter.Seq[float64] {
	return values(s.temperature)
}

func values(vs []float64) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, v := range vs {
			if !yield(v) {
				return
			}
		}
	}
}

// All iterates every tick as a Sample. Ticks are numbered from 1.
func (s Series) All() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for i := range s.population {
			if !yield(s.at(i)) {
				return
			}
		}
	}
}

// Last returns the most recent sample.
func (s Series) Last() (Sample, bool) {
	if len(s.population) == 0 {
		return Sample{}, false
	}
	return s.at(len(s.population) - 1), true
}

func (s Series) at(i int) Sample {
	return Sample{
		Tick:        i + 1,
		Population:  s.population[i],
		Pollution:   s.pollution[i],
		Temperature: s.temperature[i],
	}
}

// State returns a serializable copy.
func (s Series) State() SeriesState {
	c := s.Clone()
	return SeriesState{
		Population:  c.population,
		Pollution:   c.pollution,
		Temperature: c.temperature,
	}
}

// SeriesFromState rebuilds a Series. Mismatched lengths are truncated to the
// shortest slice.
func SeriesFromState(st SeriesState) Series {
	n := min(len(st.Population), len(st.Pollution), len(st.Temperature))
	return Series{
		population:  append([]int(nil), st.Population[:n]...),
		pollution:   append([]float64(nil), st.Pollution[:n]...),
		temperature: append([]float64(nil), st.Temperature[:n]...),
	}
}
