package telemetry

// LifetimeStats tracks per-organism statistics over its lifetime.
type LifetimeStats struct {
	BirthTick  int     `json:"birth_tick"`
	Children   int     `json:"children"`
	Meals      int     `json:"meals"`
	PeakEnergy float64 `json:"peak_energy"`
}

// LifetimeTracker manages per-organism lifetime statistics keyed by organism ID.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new organism.
func (lt *LifetimeTracker) Register(id uint32, birthTick int) {
	lt.stats[id] = &LifetimeStats{BirthTick: birthTick}
}

// Restore installs previously saved stats.
func (lt *LifetimeTracker) Restore(id uint32, s LifetimeStats) {
	lt.stats[id] = &s
}

// Get returns the lifetime stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an organism's stats and returns them.
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordMeal increments the meal count.
func (lt *LifetimeTracker) RecordMeal(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.Meals++
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LifetimeTracker) UpdateEnergy(id uint32, energy float64) {
	if s := lt.stats[id]; s != nil && energy > s.PeakEnergy {
		s.PeakEnergy = energy
	}
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
