package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iliyamo/astra-care/internal/model"
)

// ScanState is a step of the biometric scan.
type ScanState int

const (
	StateAwaitingConsent ScanState = iota
	StateCameraRequested
	StateCameraError
	StateLiveFeed
	StateScanning
	StateResultsReady
)

func (s ScanState) String() string {
	switch s {
	case StateAwaitingConsent:
		return "awaitingConsent"
	case StateCameraRequested:
		return "cameraRequested"
	case StateCameraError:
		return "cameraError"
	case StateLiveFeed:
		return "liveFeed"
	case StateScanning:
		return "scanning"
	case StateResultsReady:
		return "resultsReady"
	}
	return "unknown"
}

var (
	ErrCameraDenied    = errors.New("camera access denied")
	ErrScanUnavailable = errors.New("scan not available in this state")
)

// DefaultScanDelay is the simulated analysis time.
const DefaultScanDelay = 3200 * time.Millisecond

// Range is an inclusive uniform draw interval.
type Range struct{ Min, Max float64 }

func (r Range) draw(rnd *rand.Rand, decimals int) float64 {
	v := r.Min + rnd.Float64()*(r.Max-r.Min)
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Contains reports whether v lies in r.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Synthetic ranges of the scan bundle.  The values are pseudo-telemetry
// and are not derived from the camera.
var (
	RangeHeartRate       = Range{65, 90}
	RangeRespiration     = Range{12, 20}
	RangeHRVTrend        = Range{40, 80}
	RangeOxygenTrend     = Range{95, 99}
	RangeStress          = Range{15, 60}
	RangeFatigue         = Range{10, 50}
	RangeAlertness       = Range{55, 90}
	RangeFacialTension   = Range{10, 45}
	RangePain            = Range{0, 20}
	RangeBlinkRate       = Range{12, 22}
	RangeEyeOpenness     = Range{0.7, 1.0}
	RangeDehydration     = Range{5, 35}
	RangeFieldConfidence = Range{0.6, 0.9}
	RangeOverall         = Range{0.75, 0.95}

	Moods          = []string{"calm", "focused", "neutral", "tired", "stressed"}
	BPTrends       = []string{"normal", "slightly elevated", "slightly low"}
	SkinHydrations = []string{"normal", "adequate", "low"}

	// ConfidenceFields are the per-indicator confidence keys besides "overall".
	ConfidenceFields = []string{"heart_rate", "respiration", "mood", "stress", "fatigue", "hydration"}
)

// ScanResult is one synthesized bundle.
type ScanResult struct {
	Vitals     model.VitalEstimates
	Mental     model.MentalIndicators
	Physical   model.PhysicalIndicators
	Confidence map[string]float64
	Timestamp  time.Time
}

// Synthesize draws every field independently from its range.
func Synthesize(rnd *rand.Rand, at time.Time) ScanResult {
	f := func(r Range, dec int) *float64 { v := r.draw(rnd, dec); return &v }
	pick := func(set []string) *string { v := set[rnd.IntN(len(set))]; return &v }

	conf := make(map[string]float64, len(ConfidenceFields)+1)
	for _, k := range ConfidenceFields {
		conf[k] = RangeFieldConfidence.draw(rnd, 2)
	}
	conf["overall"] = RangeOverall.draw(rnd, 2)

	return ScanResult{
		Vitals: model.VitalEstimates{
			HeartRate:             f(RangeHeartRate, 0),
			RespirationRate:       f(RangeRespiration, 0),
			HRVTrend:              f(RangeHRVTrend, 0),
			OxygenSaturationTrend: f(RangeOxygenTrend, 0),
			BloodPressureTrend:    pick(BPTrends),
		},
		Mental: model.MentalIndicators{
			MoodState:          pick(Moods),
			MentalStressIndex:  f(RangeStress, 0),
			FatigueProbability: f(RangeFatigue, 0),
			AlertnessLevel:     f(RangeAlertness, 0),
			FacialTension:      f(RangeFacialTension, 0),
			PainLikelihood:     f(RangePain, 0),
		},
		Physical: model.PhysicalIndicators{
			BlinkRate:       f(RangeBlinkRate, 0),
			EyeOpenness:     f(RangeEyeOpenness, 2),
			SkinHydration:   pick(SkinHydrations),
			DehydrationRisk: f(RangeDehydration, 0),
		},
		Confidence: conf,
		Timestamp:  at.UTC(),
	}
}

// Input flattens the bundle into the analyze request body.
func (r ScanResult) Input(subject string) model.FacialAnalysisInput {
	ts := r.Timestamp
	return model.FacialAnalysisInput{
		AstronautID:            subject,
		EstimatedHR:            r.Vitals.HeartRate,
		RespirationRate:        r.Vitals.RespirationRate,
		HRVTrend:               r.Vitals.HRVTrend,
		OxygenSaturationTrend:  r.Vitals.OxygenSaturationTrend,
		BloodPressureTrend:     r.Vitals.BloodPressureTrend,
		MoodState:              r.Mental.MoodState,
		MentalStressIndex:      r.Mental.MentalStressIndex,
		FatigueProbability:     r.Mental.FatigueProbability,
		AlertnessLevel:         r.Mental.AlertnessLevel,
		FacialTension:          r.Mental.FacialTension,
		PainLikelihood:         r.Mental.PainLikelihood,
		BlinkRate:              r.Physical.BlinkRate,
		EyeOpenness:            r.Physical.EyeOpenness,
		SkinHydrationIndicator: r.Physical.SkinHydration,
		DehydrationRisk:        r.Physical.DehydrationRisk,
		ConfidenceScores:       r.Confidence,
		Timestamp:              &ts,
	}
}

// FacialSink stores scan results.
type FacialSink interface {
	AnalyzeFacial(ctx context.Context, in model.FacialAnalysisInput) (model.FacialAnalyzeResponse, error)
}

// Scanner runs the scan state machine:
//
//	awaitingConsent -> cameraRequested -> cameraError | liveFeed -> scanning -> resultsReady
//
// The camera is acquired at most once per consent and released by Stop.
type Scanner struct {
	cam     Camera
	sink    FacialSink
	rep     *Reporter
	subject func() string
	delay   time.Duration
	now     func() time.Time

	mu     sync.Mutex
	state  ScanState
	rnd    *rand.Rand
	held   bool
	gen    uint64
	result *ScanResult
	err    error
	abort  chan struct{} // closed by Stop to end a scan in progress
}

// NewScanner builds a scanner; subject names the subject results are
// stored for.  delay <= 0 uses DefaultScanDelay.
func NewScanner(cam Camera, sink FacialSink, subject func() string, delay time.Duration, rep *Reporter) *Scanner {
	if delay <= 0 {
		delay = DefaultScanDelay
	}
	seed := uint64(time.Now().UnixNano())
	return &Scanner{
		cam:     cam,
		sink:    sink,
		rep:     rep,
		subject: subject,
		delay:   delay,
		now:     time.Now,
		rnd:     rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// State returns the current step.
func (s *Scanner) State() ScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the latest bundle, or nil outside resultsReady.
func (s *Scanner) Result() *ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// Err returns the camera error shown in cameraError.
func (s *Scanner) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CanScan reports whether Scan would start.
func (s *Scanner) CanScan() bool {
	st := s.State()
	return st == StateLiveFeed || st == StateResultsReady
}

// Consent requests the camera.  It is valid from awaitingConsent and, as a
// retry, from cameraError.
func (s *Scanner) Consent(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAwaitingConsent && s.state != StateCameraError {
		s.mu.Unlock()
		return ErrScanUnavailable
	}
	s.state, s.err = StateCameraRequested, nil
	gen := s.gen
	s.mu.Unlock()

	err := errNoCamera
	if s.cam != nil {
		err = s.cam.Open(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Stopped while the device was being opened.
		if err == nil {
			_ = s.cam.Close()
		}
		return ErrScanUnavailable
	}
	if err != nil {
		s.state = StateCameraError
		s.err = fmt.Errorf("%w: %w", ErrCameraDenied, err)
		s.rep.Report(SeverityWarn, "scan.camera", err)
		return s.err
	}
	s.state, s.held = StateLiveFeed, true
	return nil
}

// Retry is Consent after a camera error.
func (s *Scanner) Retry(ctx context.Context) error { return s.Consent(ctx) }

// Scan waits the simulated delay, synthesizes a bundle and forwards it for
// storage.  A storage failure is reported and the result is kept.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	s.mu.Lock()
	if s.state != StateLiveFeed && s.state != StateResultsReady {
		s.mu.Unlock()
		return ScanResult{}, ErrScanUnavailable
	}
	s.state, s.result = StateScanning, nil
	s.abort = make(chan struct{})
	gen, abort := s.gen, s.abort
	s.mu.Unlock()

	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		s.mu.Lock()
		if s.gen == gen && s.state == StateScanning {
			s.state = StateLiveFeed
		}
		s.mu.Unlock()
		return ScanResult{}, ctx.Err()
	case <-abort:
		return ScanResult{}, ErrScanUnavailable
	case <-t.C:
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ScanResult{}, ErrScanUnavailable
	}
	res := Synthesize(s.rnd, s.now())
	s.state, s.result = StateResultsReady, &res
	s.mu.Unlock()

	if s.sink != nil {
		subject := ""
		if s.subject != nil {
			subject = s.subject()
		}
		if _, err := s.sink.AnalyzeFacial(ctx, res.Input(subject)); err != nil {
			s.rep.Report(SeverityError, "scan.persist", err, "subject", subject)
		}
	}
	return res, nil
}

// Stop releases the camera and returns to awaitingConsent, discarding any
// result.  A scan in progress is abandoned.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.abort != nil {
		close(s.abort)
		s.abort = nil
	}
	if s.held {
		if err := s.cam.Close(); err != nil {
			s.rep.Report(SeverityWarn, "scan.release", err)
		}
		s.held = false
	}
	s.state, s.result, s.err = StateAwaitingConsent, nil, nil
}
