package telemetry

// Frame is an immutable summary of one tick, sent from the tick loop to the
// reporter. Pointer fields are freshly allocated per frame and never touched
// again by the sender.
type Frame struct {
	Tick        int
	Population  int
	Food        int
	Temperature float64
	CO2         float64
	Pollution   float64

	// Window is set on the tick that closed a stats window.
	Window *WindowStats
	// Perf is set alongside Window.
	Perf *PerfStats

	ShowMetrics bool
}

// Sample returns the metrics series entry for the frame's tick.
func (f Frame) Sample() Sample {
	return Sample{
		Tick:        f.Tick,
		Population:  f.Population,
		Pollution:   f.Pollution,
		Temperature: f.Temperature,
	}
}
