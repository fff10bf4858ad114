// Package pipeline runs the frame analysis loop: capture a frame, query
// the vision service, track the detections, and turn them into speech
// and spatial audio.
//
// All mutable run state lives on the Session so tests and the dashboard
// work against one object with no package globals. The loop is a single
// ticker-driven scheduler: each tick it checks whether enough time has
// passed since the last request (nominal interval plus the rate-limit
// buffer), whether a request is already in flight, and whether backoff
// currently suspends requests. Responses carry the sequence number of
// the request that produced them; anything older than the newest
// request is discarded rather than applied out of order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pathsight/go-pathsight/internal/journal"
	"github.com/pathsight/go-pathsight/pkg/backoff"
	"github.com/pathsight/go-pathsight/pkg/capture"
	"github.com/pathsight/go-pathsight/pkg/detect"
	"github.com/pathsight/go-pathsight/pkg/spatial"
	"github.com/pathsight/go-pathsight/pkg/speech"
	"github.com/pathsight/go-pathsight/pkg/track"
	"github.com/pathsight/go-pathsight/pkg/vision"
)

// Deps are the session collaborators. Source and Provider are required;
// everything else may be nil and is skipped.
type Deps struct {
	Source   capture.Source
	Provider vision.Provider
	Synth    speech.Synthesizer
	Mixer    *spatial.Mixer
	Journal  *journal.Journal
	Logger   *slog.Logger

	// OnFrame is called after each applied frame with the new state.
	OnFrame func(FrameEvent)

	// OnStatus is called whenever the session status changes.
	OnStatus func(Status)
}

// FrameEvent is one applied analysis result.
type FrameEvent struct {
	Seq        uint64                `json:"seq"`
	Timestamp  time.Time             `json:"timestamp"`
	Objects    []track.TrackedObject `json:"objects"`
	Advisories []speech.Message      `json:"advisories"`
	LatencyMs  int64                 `json:"latency_ms"`
	Model      string                `json:"model,omitempty"`
}

// Status is the externally visible session state.
type Status struct {
	Running       bool             `json:"running"`
	NavMode       NavMode          `json:"nav_mode"`
	DetectionMode vision.Mode      `json:"detection_mode"`
	Movement      string           `json:"movement"`
	Interval      time.Duration    `json:"interval"`
	Seq           uint64           `json:"seq"`
	LastFrame     time.Time        `json:"last_frame,omitempty"`
	ObjectCount   int              `json:"object_count"`
	Degraded      bool             `json:"degraded"`
	Notice        string           `json:"notice,omitempty"`
	RateLimit     backoff.Snapshot `json:"rate_limit"`
}

// Session owns one navigation run.
type Session struct {
	deps    Deps
	logger  *slog.Logger
	limiter *backoff.Controller
	tracker *track.Tracker
	advisor *speech.Advisor

	mu          sync.Mutex
	cfg         Config
	movement    string
	running     bool
	seq         uint64
	applied     uint64
	inFlight    bool
	requestedAt time.Time
	lastFrame   time.Time
	lastJPEG    []byte
	objects     []track.TrackedObject
	degraded    bool
	notice      string
	journalID   int64

	now func() time.Time
}

type result struct {
	seq  uint64
	resp *vision.Response
	err  error
}

// NewSession wires a session from its collaborators.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	if deps.Source == nil {
		return nil, errors.New("pipeline: capture source required")
	}
	if deps.Provider == nil {
		return nil, errors.New("pipeline: vision provider required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "pipeline")
	}
	cfg = cfg.withDefaults()

	trackCfg := trackerConfig(cfg.Tracking)
	trackCfg.HistorySize = cfg.HistorySize

	return &Session{
		deps:     deps,
		logger:   logger,
		limiter:  backoff.New(backoff.DefaultConfig()),
		tracker:  track.New(trackCfg),
		advisor:  speech.NewAdvisor(speech.DefaultConfig(), logger),
		cfg:      cfg,
		movement: "stationary",
		now:      time.Now,
	}, nil
}

// Run drives the polling loop until the context ends. It never returns
// because of a request failure; every error becomes a state update.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	tick := s.cfg.Tick
	s.mu.Unlock()

	if s.deps.Journal != nil {
		id, err := s.deps.Journal.StartSession(string(s.NavMode()), "")
		if err != nil {
			s.logger.Warn("journal session not started", "error", err)
		} else {
			s.mu.Lock()
			s.journalID = id
			s.mu.Unlock()
		}
		defer func() {
			s.mu.Lock()
			id := s.journalID
			s.mu.Unlock()
			if id != 0 {
				if err := s.deps.Journal.EndSession(id); err != nil {
					s.logger.Warn("journal session not closed", "error", err)
				}
			}
		}()
	}

	s.publishStatus()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.publishStatus()
	}()

	results := make(chan result, 4)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-results:
			s.apply(ctx, r)
		case <-ticker.C:
			s.maybeRequest(ctx, results)
		}
	}
}

// Step runs one scheduler pass synchronously: issue a request if due
// and apply its result. Used by tests and one-shot tools.
func (s *Session) Step(ctx context.Context) {
	results := make(chan result, 1)
	if !s.maybeRequest(ctx, results) {
		return
	}
	s.apply(ctx, <-results)
}

// maybeRequest starts a vision request when one is due. Reports whether
// a request was launched.
func (s *Session) maybeRequest(ctx context.Context, results chan<- result) bool {
	now := s.now()

	// A spent retry budget ends polling for the session; the degraded
	// notice stays up instead of an endless 429 loop.
	if s.limiter.Exhausted() {
		return false
	}

	s.mu.Lock()
	if s.inFlight {
		if now.Sub(s.requestedAt) > s.cfg.StallTimeout {
			s.logger.Warn("vision request stalled, abandoning", "seq", s.seq)
			s.inFlight = false
		} else {
			s.mu.Unlock()
			return false
		}
	}
	due := s.cfg.Interval + s.limiter.Buffer()
	if !s.requestedAt.IsZero() && now.Sub(s.requestedAt) < due {
		s.mu.Unlock()
		return false
	}
	if s.limiter.InBackoff() {
		s.mu.Unlock()
		return false
	}
	mode := s.cfg.DetectionMode
	wantContext := s.cfg.NavMode.SceneContext()
	s.mu.Unlock()

	frame, err := s.deps.Source.CaptureJPEG()
	if err != nil {
		// Camera not ready is routine at startup; try again next tick.
		s.logger.Debug("frame unavailable", "error", err)
		return false
	}

	var sceneContext string
	if wantContext {
		sceneContext = s.tracker.History().ContextHint(now)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.inFlight = true
	s.requestedAt = now
	s.lastJPEG = frame
	s.mu.Unlock()

	req := &vision.Request{ImageJPEG: frame, Mode: mode, Context: sceneContext}
	go func() {
		rctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
		resp, err := s.deps.Provider.Detect(rctx, req)
		select {
		case results <- result{seq: seq, resp: resp, err: err}:
		case <-ctx.Done():
		}
	}()
	return true
}

// apply consumes one request result. Stale results, from requests
// abandoned after a stall, are discarded without touching state.
func (s *Session) apply(ctx context.Context, r result) {
	s.mu.Lock()
	if r.seq != s.seq || r.seq <= s.applied {
		s.mu.Unlock()
		s.logger.Debug("stale response discarded", "seq", r.seq)
		return
	}
	s.inFlight = false
	s.applied = r.seq
	s.mu.Unlock()

	if r.err != nil {
		s.handleError(r.err)
		return
	}
	s.handleResponse(ctx, r)
}

// handleError maps a request failure onto backoff state and a
// dashboard notice. Detection state is left as is.
func (s *Session) handleError(err error) {
	switch {
	case isRateLimited(err):
		suggested, _ := vision.RateLimitInfo(err)
		delay, berr := s.limiter.OnRateLimited(suggested)
		s.recordRateLimit(delay)
		if errors.Is(berr, backoff.ErrMaxRetries) {
			s.setNotice("Vision service limit reached. Please wait or check your quota.", true)
			s.speak(speech.Message{
				Text:  "Vision service limit reached, guidance paused",
				Class: speech.ClassUrgent,
			})
		} else {
			s.setNotice(fmt.Sprintf("Vision service busy, retrying in %s", delay.Round(time.Second)), false)
		}
	case errors.Is(err, vision.ErrResponseFormat), errors.Is(err, vision.ErrEmptyResponse):
		s.logger.Warn("unparseable vision response, keeping previous detections", "error", err)
	default:
		s.limiter.OnTransientError()
		s.logger.Warn("vision request failed", "error", err)
		s.setNotice("Vision request failed, retrying", false)
	}
	s.publishStatus()
}

func isRateLimited(err error) bool {
	var apiErr *vision.APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimited()
}

// handleResponse normalizes, tracks, and announces one successful
// detection result.
func (s *Session) handleResponse(ctx context.Context, r result) {
	s.limiter.OnSuccess()

	s.mu.Lock()
	mode := s.cfg.DetectionMode
	fallback := s.cfg.FallbackBoxes
	navMode := s.cfg.NavMode
	movement := s.movement
	s.mu.Unlock()

	boxes := s.normalize(mode, r.resp.Items, fallback)
	objects := s.tracker.Update(boxes)

	now := s.now()
	s.tracker.History().Push(track.FrameHistoryEntry{
		Timestamp:         now,
		Detections:        objects,
		MovementDirection: movement,
	})

	advisories := s.advisor.Advise(objects)
	for _, msg := range advisories {
		if navMode == NavBasic && msg.Class == speech.ClassAmbient {
			continue
		}
		s.speak(msg)
	}

	if navMode.SpatialAudio() && s.deps.Mixer != nil {
		if err := s.deps.Mixer.Update(ctx, objects); err != nil {
			s.logger.Warn("spatial mix failed", "error", err)
		}
	}

	s.journalFrame(r, objects, advisories)

	s.mu.Lock()
	s.objects = objects
	s.lastFrame = now
	s.degraded = false
	s.notice = ""
	s.mu.Unlock()

	if s.deps.OnFrame != nil {
		s.deps.OnFrame(FrameEvent{
			Seq:        r.seq,
			Timestamp:  now,
			Objects:    objects,
			Advisories: advisories,
			LatencyMs:  r.resp.LatencyMs,
			Model:      r.resp.Model,
		})
	}
	s.publishStatus()
}

// normalize converts raw response items to 2D boxes per detection mode.
func (s *Session) normalize(mode vision.Mode, items []any, fallback bool) []detect.Box2D {
	switch mode {
	case vision.Mode3D:
		return boxesFrom3D(detect.NormalizeAllBox3D(items))
	case vision.ModePoints:
		return detect.PointsToBoxes(detect.NormalizeAllPoints(items))
	default:
		return detect.NormalizeAll(items, fallback)
	}
}

// Assumed horizontal field of view for projecting camera-space 3D boxes
// onto the unit frame.
const fovTan = 0.6

// boxesFrom3D projects oriented camera-space boxes to flat frame boxes
// so the tracker and advisor see one geometry. Depth becomes the spoken
// distance phrase.
func boxesFrom3D(boxes []detect.Box3D) []detect.Box2D {
	out := make([]detect.Box2D, 0, len(boxes))
	for _, b := range boxes {
		z := b.Center[2]
		if z <= 0 {
			z = 0.1
		}
		cx := 0.5 + b.Center[0]/(2*fovTan*z)
		cy := 0.5 + b.Center[1]/(2*fovTan*z)
		w := b.Size[0] / (2 * fovTan * z)
		h := b.Size[1] / (2 * fovTan * z)
		w = clamp01(w)
		h = clamp01(h)

		dist := b.Distance
		if dist == "" {
			dist = speech.DepthTier(z)
		}
		out = append(out, detect.Box2D{
			X:            clamp01(cx - w/2),
			Y:            clamp01(cy - h/2),
			Width:        w,
			Height:       h,
			Label:        b.Label,
			Distance:     dist,
			MovementHint: b.MovementHint,
		})
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func (s *Session) speak(msg speech.Message) {
	if s.deps.Synth == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.deps.Synth.Speak(ctx, msg); err != nil {
		s.logger.Warn("speech failed", "error", err, "text", msg.Text)
	}
}

func (s *Session) journalFrame(r result, objects []track.TrackedObject, advisories []speech.Message) {
	if s.deps.Journal == nil {
		return
	}
	s.mu.Lock()
	id := s.journalID
	s.mu.Unlock()
	if id == 0 {
		return
	}
	frameID, err := s.deps.Journal.RecordFrame(id, r.seq,
		time.Duration(r.resp.LatencyMs)*time.Millisecond, r.resp.Model)
	if err != nil {
		s.logger.Warn("journal frame failed", "error", err)
		return
	}
	if err := s.deps.Journal.RecordDetections(frameID, objects); err != nil {
		s.logger.Warn("journal detections failed", "error", err)
	}
	for _, msg := range advisories {
		if err := s.deps.Journal.RecordAdvisory(id, msg); err != nil {
			s.logger.Warn("journal advisory failed", "error", err)
			break
		}
	}
}

func (s *Session) recordRateLimit(delay time.Duration) {
	if s.deps.Journal == nil {
		return
	}
	s.mu.Lock()
	id := s.journalID
	s.mu.Unlock()
	if id == 0 {
		return
	}
	if err := s.deps.Journal.RecordRateLimit(id, delay, s.limiter.Buffer()); err != nil {
		s.logger.Warn("journal rate limit failed", "error", err)
	}
}

func (s *Session) setNotice(notice string, degraded bool) {
	s.mu.Lock()
	s.notice = notice
	if degraded {
		s.degraded = true
	}
	s.mu.Unlock()
}

func (s *Session) publishStatus() {
	if s.deps.OnStatus == nil {
		return
	}
	s.deps.OnStatus(s.Status())
}

// Status returns the current session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:       s.running,
		NavMode:       s.cfg.NavMode,
		DetectionMode: s.cfg.DetectionMode,
		Movement:      s.movement,
		Interval:      s.cfg.Interval,
		Seq:           s.seq,
		LastFrame:     s.lastFrame,
		ObjectCount:   len(s.objects),
		Degraded:      s.degraded,
		Notice:        s.notice,
		RateLimit:     s.limiter.Snapshot(),
	}
}

// Subscribe installs the frame and status callbacks. Call before Run;
// either may be nil.
func (s *Session) Subscribe(onFrame func(FrameEvent), onStatus func(Status)) {
	s.deps.OnFrame = onFrame
	s.deps.OnStatus = onStatus
}

// JournalID returns the journal session row id, 0 when journaling is
// off or the session has not started.
func (s *Session) JournalID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journalID
}

// FrameJPEG returns the most recently captured frame, empty before the
// first capture.
func (s *Session) FrameJPEG() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.lastJPEG))
	copy(out, s.lastJPEG)
	return out
}

// Objects returns the last applied detection set.
func (s *Session) Objects() []track.TrackedObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]track.TrackedObject, len(s.objects))
	copy(out, s.objects)
	return out
}

// NavMode returns the current verbosity tier.
func (s *Session) NavMode() NavMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.NavMode
}

// SetNavMode switches the verbosity tier at runtime. Leaving a spatial
// mode silences the mixer.
func (s *Session) SetNavMode(mode NavMode) {
	s.mu.Lock()
	prev := s.cfg.NavMode
	s.cfg.NavMode = mode
	s.mu.Unlock()
	if prev.SpatialAudio() && !mode.SpatialAudio() && s.deps.Mixer != nil {
		if err := s.deps.Mixer.Silence(); err != nil {
			s.logger.Warn("mixer silence failed", "error", err)
		}
	}
	s.publishStatus()
}

// SetDetectionMode switches the vision query style at runtime.
func (s *Session) SetDetectionMode(mode vision.Mode) {
	s.mu.Lock()
	s.cfg.DetectionMode = mode
	s.mu.Unlock()
	s.publishStatus()
}

// SetInterval changes the nominal polling cadence, clamped to the
// allowed range.
func (s *Session) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.cfg.Interval = clampInterval(d)
	s.mu.Unlock()
	s.publishStatus()
}

// SetMovement records the user's own movement direction for context
// hints ("I am currently walking forward").
func (s *Session) SetMovement(direction string) {
	s.mu.Lock()
	if direction == "" {
		direction = "stationary"
	}
	s.movement = direction
	s.mu.Unlock()
}
