package game

import (
	"log"
	"sync"
	"time"
)

// race is the ephemeral per-room state for the current focus race. It exists
// from the first join until a winner is recorded (or the idle reaper removes
// it) and is only ever touched through RaceStore methods.
type race struct {
	hostUID      string
	targetTime   *float64
	participants []string
	progress     map[string]float64
	winnerUID    string
	winnerName   string
	// candidateFired gates the winner-candidate notice: one per room per
	// race window, reset when the target time is (re)set.
	candidateFired bool
	lastActive     time.Time
}

// RaceSnapshot is a read-only copy handed out by Get.
type RaceSnapshot struct {
	HostUID      string
	TargetTime   *float64
	Participants []string
	Progress     map[string]float64
	WinnerUID    string
	WinnerName   string
}

// RaceStore is the in-memory table of ephemeral race state, keyed by room id.
// A single lock covers the whole table; contention is negligible at the
// expected scale of tens of concurrent rooms.
type RaceStore struct {
	mu    sync.RWMutex
	races map[string]*race

	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

// DefaultRaceTTL bounds how long a room that never concludes can occupy
// memory. Races are reaped once idle for this long.
const DefaultRaceTTL = 2 * time.Hour

func NewRaceStore(ttl time.Duration) *RaceStore {
	if ttl <= 0 {
		ttl = DefaultRaceTTL
	}
	return &RaceStore{
		races: make(map[string]*race),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
}

// CreateIfAbsent initializes ephemeral state for the room. No-op when the
// room already exists, so concurrent first joins are harmless.
func (s *RaceStore) CreateIfAbsent(roomID, hostUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.races[roomID]; ok {
		return
	}
	s.races[roomID] = &race{
		hostUID:    hostUID,
		progress:   make(map[string]float64),
		lastActive: time.Now(),
	}
}

// SetTargetTime overwrites the race's target unconditionally, supporting a
// restart before a winner is declared. Restarting opens a fresh candidate
// window. No-op if the room is absent. Reports whether the room existed.
func (s *RaceStore) SetTargetTime(roomID string, target float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.races[roomID]
	if !ok {
		return false
	}
	r.targetTime = &target
	r.candidateFired = false
	r.lastActive = time.Now()
	return true
}

// AddParticipant is idempotent; a newly tracked participant starts at
// progress zero.
func (s *RaceStore) AddParticipant(roomID, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.races[roomID]
	if !ok {
		return
	}
	if _, tracked := r.progress[uid]; tracked {
		r.lastActive = time.Now()
		return
	}
	r.participants = append(r.participants, uid)
	r.progress[uid] = 0
	r.lastActive = time.Now()
}

// UpdateProgress records a participant's reported time, overwriting whatever
// was there before (smaller values included — the client may undo progress).
// It reports whether this report reached the target: the race must be
// started, the value at or past the target, no winner declared yet, and no
// earlier report may have already fired the candidate for this window.
func (s *RaceStore) UpdateProgress(roomID, uid string, reported float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.races[roomID]
	if !ok {
		return false
	}
	if _, tracked := r.progress[uid]; !tracked {
		return false
	}
	r.progress[uid] = reported
	r.lastActive = time.Now()

	if r.targetTime == nil || reported < *r.targetTime {
		return false
	}
	if r.winnerUID != "" || r.candidateFired {
		return false
	}
	r.candidateFired = true
	return true
}

// ReopenCandidate re-arms the candidate window after a notice could not be
// delivered, letting a later qualifying report fire it again.
func (s *RaceStore) ReopenCandidate(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.races[roomID]; ok && r.winnerUID == "" {
		r.candidateFired = false
	}
}

// SetWinner records the winner if, and only if, none has been recorded for
// this room. The first caller wins; everyone else gets false.
func (s *RaceStore) SetWinner(roomID, uid, displayName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.races[roomID]
	if !ok || r.winnerUID != "" {
		return false
	}
	r.winnerUID = uid
	r.winnerName = displayName
	r.lastActive = time.Now()
	return true
}

// Get returns a snapshot of the room's race state.
func (s *RaceStore) Get(roomID string) (RaceSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.races[roomID]
	if !ok {
		return RaceSnapshot{}, false
	}
	snap := RaceSnapshot{
		HostUID:      r.hostUID,
		Participants: append([]string(nil), r.participants...),
		Progress:     make(map[string]float64, len(r.progress)),
		WinnerUID:    r.winnerUID,
		WinnerName:   r.winnerName,
	}
	if r.targetTime != nil {
		t := *r.targetTime
		snap.TargetTime = &t
	}
	for uid, p := range r.progress {
		snap.Progress[uid] = p
	}
	return snap, true
}

// Remove deletes the room's ephemeral state. Called after a winner is
// recorded; the reaper uses it for abandoned rooms.
func (s *RaceStore) Remove(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.races, roomID)
}

// Len reports how many races are live.
func (s *RaceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.races)
}

// Start launches the idle-room reaper. Rooms nobody touches for the store's
// TTL are discarded so never-concluded races cannot grow memory forever.
func (s *RaceStore) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.reap()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the reaper goroutine.
func (s *RaceStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *RaceStore) reap() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	for roomID, r := range s.races {
		if r.lastActive.Before(cutoff) {
			delete(s.races, roomID)
			log.Printf("game: reaped idle room %s", roomID)
		}
	}
}
