package dashboard

import "time"

// DefaultRefreshInterval is the observed production period (10 800 000 ms).
const DefaultRefreshInterval = 3 * time.Hour

// Scheduler decides when the next snapshot fetch is due and orders responses.
// Every fetch gets a sequence number from Begin; Accept rejects anything older
// than the newest response already applied.
type Scheduler struct {
	interval time.Duration

	nextSeq    uint64
	appliedSeq uint64
	inFlight   int
	lastStart  time.Time
	stopped    bool
}

// NewScheduler returns a scheduler firing every interval. An interval of
// zero or less disables periodic refresh (fetch once).
func NewScheduler(interval time.Duration) *Scheduler {
	if interval < 0 {
		interval = 0
	}
	return &Scheduler{interval: interval}
}

// Interval returns the refresh period (0 when disabled).
func (s *Scheduler) Interval() time.Duration { return s.interval }

// SetInterval changes the refresh period.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.interval = d
}

// Begin records the start of a fetch and returns its sequence number.
func (s *Scheduler) Begin(now time.Time) uint64 {
	s.nextSeq++
	s.inFlight++
	s.lastStart = now
	return s.nextSeq
}

// Due reports whether a scheduled fetch should start now. Nothing is due
// after Stop, when periodic refresh is disabled, or while a fetch is running.
func (s *Scheduler) Due(now time.Time) bool {
	if s.stopped || s.interval == 0 || s.inFlight > 0 {
		return false
	}
	return now.Sub(s.lastStart) >= s.interval
}

// NextAt returns when the next scheduled fetch is due, or the zero time when
// periodic refresh is disabled.
func (s *Scheduler) NextAt() time.Time {
	if s.interval == 0 || s.lastStart.IsZero() {
		return time.Time{}
	}
	return s.lastStart.Add(s.interval)
}

// InFlight reports whether any fetch has not reported back yet.
func (s *Scheduler) InFlight() bool { return s.inFlight > 0 }

// Accept is called when the response for seq arrives. It returns true when
// the response should replace the current snapshot.
func (s *Scheduler) Accept(seq uint64) bool {
	if s.inFlight > 0 {
		s.inFlight--
	}
	if s.stopped || seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	return true
}

// Applied returns the sequence number of the snapshot currently shown.
func (s *Scheduler) Applied() uint64 { return s.appliedSeq }

// Stop ends scheduling; later responses are ignored.
func (s *Scheduler) Stop() { s.stopped = true }

// Stopped reports whether Stop was called.
func (s *Scheduler) Stopped() bool { return s.stopped }
