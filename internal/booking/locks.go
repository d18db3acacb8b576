package booking

import "sync"

// stationLocks serializes admission per station id. Reservations on different
// stations proceed in parallel; the map only ever holds one mutex per station
// in the catalogue, so entries are not reclaimed.
type stationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newStationLocks() *stationLocks {
	return &stationLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the station's mutex and returns the release func.
func (l *stationLocks) lock(stationID string) func() {
	l.mu.Lock()
	m, ok := l.locks[stationID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[stationID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
