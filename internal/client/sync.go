package client

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/astra-care/internal/model"
)

// Slice names one independently fetched part of the dashboard state.
type Slice int

const (
	SliceVitals Slice = iota
	SliceBaseline
	SliceTimeline
	SliceAlerts
	SliceContext
	SliceChat
	numSlices
)

var sliceNames = [numSlices]string{"vitals", "baseline", "timeline", "alerts", "context", "chat"}

func (s Slice) String() string {
	if s < 0 || s >= numSlices {
		return "unknown"
	}
	return sliceNames[s]
}

// Fetcher is the read side of the API the synchronizer polls.
type Fetcher interface {
	LatestVitals(ctx context.Context, subject string) (*model.VitalsSample, error)
	Baseline(ctx context.Context, subject string) (model.Baseline, error)
	Timeline(ctx context.Context, subject string, days int) (model.Timeline, error)
	Alerts(ctx context.Context, subject string) ([]model.Alert, error)
	Context(ctx context.Context, subject string) (model.MissionContext, error)
	ChatHistory(ctx context.Context, subject string) ([]model.ChatExchange, error)
}

// Snapshot is the aggregate state every view renders from.
type Snapshot struct {
	Subject      string
	Vitals       *model.VitalsSample
	Baseline     model.Baseline
	TimelineDays int
	Timeline     []model.TimelineBucket
	Alerts       []model.Alert
	Context      model.MissionContext
	Chat         []model.ChatExchange
	LastSync     time.Time
}

func emptySnapshot(subject string, days int) Snapshot {
	return Snapshot{
		Subject:      subject,
		Baseline:     model.DefaultBaseline(subject),
		TimelineDays: days,
		Context:      model.DefaultMissionContext(subject),
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Vitals != nil {
		v := *s.Vitals
		out.Vitals = &v
	}
	out.Timeline = slices.Clone(s.Timeline)
	out.Alerts = slices.Clone(s.Alerts)
	out.Chat = slices.Clone(s.Chat)
	return out
}

// Synchronizer keeps a Snapshot of the selected subject fresh.  Every batch
// gets a sequence number and a slice response is applied only when no
// newer batch has already applied that slice and the subject is still
// selected, so the latest issued request wins regardless of arrival order.
type Synchronizer struct {
	src      Fetcher
	rep      *Reporter
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	snap     Snapshot
	seq      uint64
	applied  [numSlices]uint64
	floor    [numSlices]uint64
	subjCtx  context.Context
	subjStop context.CancelFunc
	subs     []func(Snapshot)

	refresh chan struct{}
	gate    func() bool
}

// NewSynchronizer polls src every interval (30s when zero) once Run starts.
func NewSynchronizer(src Fetcher, rep *Reporter, interval time.Duration, timelineDays int) *Synchronizer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if !validDays(timelineDays) {
		timelineDays = model.TimelineWindows[0]
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Synchronizer{
		src:      src,
		rep:      rep,
		interval: interval,
		now:      time.Now,
		snap:     emptySnapshot("", timelineDays),
		subjCtx:  ctx,
		subjStop: stop,
		refresh:  make(chan struct{}, 1),
	}
}

func validDays(d int) bool { return slices.Contains(model.TimelineWindows, d) }

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Subject returns the selected subject.
func (s *Synchronizer) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Subject
}

// Subscribe registers fn to run after every applied change.
func (s *Synchronizer) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// SetSubject selects another subject.  In-flight batches for the old one
// are cancelled, the state resets to defaults and a resync is requested.
func (s *Synchronizer) SetSubject(subject string) {
	s.mu.Lock()
	if subject == s.snap.Subject {
		s.mu.Unlock()
		return
	}
	s.subjStop()
	s.subjCtx, s.subjStop = context.WithCancel(context.Background())
	s.snap = emptySnapshot(subject, s.snap.TimelineDays)
	for i := range s.floor {
		s.floor[i] = s.seq
	}
	snap, subs := s.snap.clone(), slices.Clone(s.subs)
	s.mu.Unlock()

	s.notify(subs, snap)
	s.Refresh()
}

// SetTimelineDays changes the lookback window (7, 14 or 30).  Timeline
// responses for the previous window are dropped.
func (s *Synchronizer) SetTimelineDays(days int) bool {
	if !validDays(days) {
		return false
	}
	s.mu.Lock()
	if s.snap.TimelineDays == days {
		s.mu.Unlock()
		return true
	}
	s.snap.TimelineDays = days
	s.snap.Timeline = nil
	s.floor[SliceTimeline] = s.seq
	s.mu.Unlock()
	s.Refresh()
	return true
}

// Invalidate drops every response for sl from batches issued so far.  Call
// it after a local mutation so an older poll cannot overwrite it.
func (s *Synchronizer) Invalidate(sl Slice) {
	s.mu.Lock()
	s.floor[sl] = s.seq
	s.mu.Unlock()
}

// Mutate applies a local change when subject is still selected.
func (s *Synchronizer) Mutate(subject string, fn func(*Snapshot)) bool {
	s.mu.Lock()
	if subject != s.snap.Subject {
		s.mu.Unlock()
		return false
	}
	fn(&s.snap)
	snap, subs := s.snap.clone(), slices.Clone(s.subs)
	s.mu.Unlock()
	s.notify(subs, snap)
	return true
}

// SetGate installs a check run before every batch; batches are skipped
// while it returns false.
func (s *Synchronizer) SetGate(fn func() bool) {
	s.mu.Lock()
	s.gate = fn
	s.mu.Unlock()
}

// Refresh requests an immediate out-of-band resync.  It never blocks.
func (s *Synchronizer) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Run syncs immediately, then on every tick and every Refresh until ctx
// ends.  Batches may overlap; the sequence guard orders their effects.
func (s *Synchronizer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	start := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Sync(ctx)
		}()
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()
	start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			start()
		case <-s.refresh:
			start()
		}
	}
}

// Sync runs one batch of the six fetches and returns when all have
// resolved.  Failed fetches substitute the slice default.
func (s *Synchronizer) Sync(ctx context.Context) {
	s.mu.Lock()
	subject, gate := s.snap.Subject, s.gate
	if subject == "" || (gate != nil && !gate()) {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq, days, subjCtx := s.seq, s.snap.TimelineDays, s.subjCtx
	s.mu.Unlock()

	bctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(subjCtx, cancel)
	defer stop()

	var g errgroup.Group
	g.Go(func() error {
		v, err := s.src.LatestVitals(bctx, subject)
		if s.failed(SliceVitals, subject, err) {
			v = nil
		}
		s.apply(seq, subject, SliceVitals, func(sn *Snapshot) { sn.Vitals = v })
		return nil
	})
	g.Go(func() error {
		b, err := s.src.Baseline(bctx, subject)
		if s.failed(SliceBaseline, subject, err) {
			b = model.DefaultBaseline(subject)
		}
		s.apply(seq, subject, SliceBaseline, func(sn *Snapshot) { sn.Baseline = b })
		return nil
	})
	g.Go(func() error {
		tl, err := s.src.Timeline(bctx, subject, days)
		if s.failed(SliceTimeline, subject, err) {
			tl = model.Timeline{}
		}
		s.apply(seq, subject, SliceTimeline, func(sn *Snapshot) {
			if sn.TimelineDays == days {
				sn.Timeline = tl.DailyAverages
			}
		})
		return nil
	})
	g.Go(func() error {
		as, err := s.src.Alerts(bctx, subject)
		if s.failed(SliceAlerts, subject, err) {
			as = nil
		}
		s.apply(seq, subject, SliceAlerts, func(sn *Snapshot) { sn.Alerts = as })
		return nil
	})
	g.Go(func() error {
		mc, err := s.src.Context(bctx, subject)
		if s.failed(SliceContext, subject, err) {
			mc = model.DefaultMissionContext(subject)
		}
		s.apply(seq, subject, SliceContext, func(sn *Snapshot) { sn.Context = mc })
		return nil
	})
	g.Go(func() error {
		h, err := s.src.ChatHistory(bctx, subject)
		if s.failed(SliceChat, subject, err) {
			h = nil
		}
		s.apply(seq, subject, SliceChat, func(sn *Snapshot) { sn.Chat = ReplaceHistory(sn.Chat, h) })
		return nil
	})
	_ = g.Wait()
}

func (s *Synchronizer) failed(sl Slice, subject string, err error) bool {
	if err == nil {
		return false
	}
	sev := SeverityWarn
	if errors.Is(err, context.Canceled) {
		sev = SeverityDebug
	}
	s.rep.Report(sev, "sync."+sl.String(), err, "subject", subject)
	return true
}

// apply installs one slice result unless it is stale or the gate has
// closed since the batch started.
func (s *Synchronizer) apply(seq uint64, subject string, sl Slice, set func(*Snapshot)) bool {
	s.mu.Lock()
	closed := s.gate != nil && !s.gate()
	if closed || subject != s.snap.Subject || seq <= s.applied[sl] || seq <= s.floor[sl] {
		s.mu.Unlock()
		s.rep.Report(SeverityDebug, "sync.stale", nil, "slice", sl.String(), "seq", seq)
		return false
	}
	s.applied[sl] = seq
	set(&s.snap)
	s.snap.LastSync = s.now()
	snap, subs := s.snap.clone(), slices.Clone(s.subs)
	s.mu.Unlock()
	s.notify(subs, snap)
	return true
}

func (s *Synchronizer) notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
