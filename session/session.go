// A Session drives one restitch run through its pipeline:
//
//	load parameters -> discover chip set -> reconcile dimensions -> composite
//
// The run executes on its own goroutine so the caller's control flow (a UI
// loop, typically) never blocks; progress, completion and failure arrive as
// listener callbacks from that goroutine. Cancellation is cooperative and
// only honoured at stage boundaries, never mid-buffer-operation, so a
// cancelled run can't leave a partially written canvas behind.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/nsew-imaging/chipstitch/alignment"
	"github.com/nsew-imaging/chipstitch/chipimport"
	"github.com/nsew-imaging/chipstitch/compositor"
	"github.com/nsew-imaging/chipstitch/config"
	"github.com/nsew-imaging/chipstitch/core/fileaccess"
	"github.com/nsew-imaging/chipstitch/core/idgen"
	"github.com/nsew-imaging/chipstitch/core/imgcodec"
	"github.com/nsew-imaging/chipstitch/core/logger"
	"github.com/nsew-imaging/chipstitch/core/quadrant"
	"github.com/nsew-imaging/chipstitch/core/timestamper"
)

type State string

const (
	StateIdle              State = "idle"
	StateLoadingParameters State = "loading_parameters"
	StateDiscovering       State = "discovering"
	StateReconciling       State = "reconciling"
	StateCompositing       State = "compositing"
	StateDone              State = "done"
	StateFailed            State = "failed"
	StateCancelled         State = "cancelled"
)

// Listener - receives run events. Callbacks fire on the worker goroutine.
type Listener interface {
	OnProgress(frac float64, label string)
	OnCompleted(result *CompositeResult)
	OnFailed(err error)
	OnCancelled()
}

// Deps - the collaborators a session needs. Passed in explicitly, a session
// reads no ambient state. The codec must be rooted at the same location as
// the root passed to Run.
type Deps struct {
	FS    fileaccess.FileAccess
	Codec imgcodec.ImageCodec
	TS    timestamper.ITimeStamper
	IDGen idgen.IDGenerator
	Log   logger.ILogger
}

type Session struct {
	store      alignment.Store
	discovery  chipimport.Discovery
	reconciler chipimport.Reconciler
	comp       compositor.Compositor

	fs    fileaccess.FileAccess
	codec imgcodec.ImageCodec
	idgen idgen.IDGenerator
	cfg   config.StitchConfig
	log   logger.ILogger

	listener Listener

	mu              sync.Mutex
	state           State
	failure         error
	cancelRequested atomic.Bool
}

// New - a session runs at most once; make a new one per restitch
func New(deps Deps, cfg config.StitchConfig, listener Listener) *Session {
	return &Session{
		store:      alignment.MakeStore(deps.FS, deps.TS, deps.Log),
		discovery:  chipimport.MakeDiscovery(deps.FS, deps.Codec, deps.Log),
		reconciler: chipimport.MakeReconciler(deps.Codec, cfg.Interpolation, deps.Log),
		comp:       compositor.MakeCompositor(cfg, deps.Log),
		fs:         deps.FS,
		codec:      deps.Codec,
		idgen:      deps.IDGen,
		cfg:        cfg,
		log:        deps.Log,
		listener:   listener,
		state:      StateIdle,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Cancel - cooperative, takes effect at the next stage boundary
func (s *Session) Cancel() {
	s.cancelRequested.Store(true)
}

// Run - starts the pipeline on a worker goroutine. outputPath may be empty,
// in which case the composite lands next to the first-pass composite with a
// chip suffix. Errors only if the session was already run.
func (s *Session) Run(root string, sidecarPath string, outputPath string) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return errors.Errorf("session already ran (state %v), sessions are single-use", s.state)
	}
	s.state = StateLoadingParameters
	s.mu.Unlock()

	go s.runPipeline(root, sidecarPath, outputPath)
	return nil
}

func (s *Session) setStage(state State, frac float64, label string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.log.Infof("[%3.0f%%] %v", frac*100, label)
	s.listener.OnProgress(frac, label)
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = StateFailed
	s.failure = err
	s.mu.Unlock()

	s.log.Errorf("Restitch failed: %v", err)
	s.listener.OnFailed(err)
}

// checkpoint - called before each stage transition. Returns true if the run
// should stop because cancellation was requested.
func (s *Session) checkpoint() bool {
	if !s.cancelRequested.Load() {
		return false
	}

	s.mu.Lock()
	s.state = StateCancelled
	s.mu.Unlock()

	s.log.Infof("Restitch cancelled")
	s.listener.OnCancelled()
	return true
}

func (s *Session) runPipeline(root string, sidecarPath string, outputPath string) {
	start := time.Now()
	runId := s.idgen.GenObjectID()

	s.setStage(StateLoadingParameters, 0, "Loading alignment parameters")
	s.log.Infof("Restitch run %v: record=%v", runId, sidecarPath)

	record, err := s.store.Load(root, sidecarPath)
	if err != nil {
		s.fail(err)
		return
	}

	outcome := s.store.Validate(root, record, true)
	for _, warn := range outcome.Warnings {
		s.log.Infof("Validation warning: %v", warn)
	}
	if !outcome.OK {
		s.fail(&alignment.IncompleteRecordError{Path: sidecarPath, Stage: outcome.FailedStage, Problems: outcome.Errors})
		return
	}

	if len(outputPath) <= 0 {
		outputPath = DefaultOutputPath(record, s.cfg)
	}

	if s.checkpoint() {
		return
	}
	s.setStage(StateDiscovering, 0.25, "Discovering chip images")

	set, err := s.discovery.Find(root, record)
	if err != nil {
		s.fail(err)
		return
	}

	if s.checkpoint() {
		return
	}
	s.setStage(StateReconciling, 0.50, "Reconciling image dimensions")

	placements := []compositor.Placement{}
	provenance := map[quadrant.Quadrant]Provenance{}

	for i := range record.Regions {
		region := &record.Regions[i]

		foundPath := ""
		if chipPath, ok := set.Found[region.RegionID]; ok {
			foundPath = chipPath
		}

		buf, err := s.reconciler.Normalize(region, foundPath)
		if err != nil {
			var unreadable *chipimport.UnreadableImageError
			if !errors.As(err, &unreadable) {
				s.fail(err)
				return
			}

			// A corrupt chip file degrades to a placeholder, it never fails
			// the run - the contract is a complete composite from a valid
			// record, with the substitution recorded in provenance
			s.log.Errorf("Region %v: %v - substituting placeholder", region.RegionID, err)
			buf, err = s.reconciler.Normalize(region, "")
			if err != nil {
				s.fail(err)
				return
			}
			provenance[region.RegionID] = ProvenancePlaceholder
		} else if len(foundPath) <= 0 {
			provenance[region.RegionID] = ProvenancePlaceholder
		} else if buf.Resized {
			provenance[region.RegionID] = ProvenanceResized
		} else {
			provenance[region.RegionID] = ProvenanceFound
		}

		placements = append(placements, compositor.Placement{
			RegionID:    region.RegionID,
			Buffer:      buf.Image,
			Translation: *region.Translation,
		})
	}

	if s.checkpoint() {
		return
	}
	s.setStage(StateCompositing, 0.75, "Compositing")

	canvas, err := s.comp.Compose(placements)
	if err != nil {
		s.fail(err)
		return
	}

	// Last chance to cancel: after this the canvas and report get written
	if s.checkpoint() {
		return
	}

	if err := s.codec.WritePixels(canvas, outputPath); err != nil {
		s.fail(errors.Wrapf(err, "failed to write composite %v", outputPath))
		return
	}

	result := &CompositeResult{
		RunID:               runId,
		Canvas:              canvas,
		PerRegionProvenance: provenance,
		SizeMismatches:      set.SizeMismatches,
		ProcessingTime:      time.Since(start),
		SourceRecordPath:    sidecarPath,
		OutputPath:          outputPath,
		CanvasMD5:           canvasChecksum(canvas),
		Warnings:            outcome.Warnings,
	}

	report := resultReport{
		RunID:            result.RunID,
		SourceRecordPath: result.SourceRecordPath,
		OutputPath:       result.OutputPath,
		Provenance:       result.PerRegionProvenance,
		ProvenanceCounts: result.ProvenanceCounts(),
		SizeMismatches:   result.SizeMismatches,
		ProcessingTimeMs: result.ProcessingTime.Milliseconds(),
		CanvasMD5:        result.CanvasMD5,
		Warnings:         result.Warnings,
		Config:           s.cfg,
	}
	if err := s.fs.WriteJSON(root, ReportPathFor(outputPath), report); err != nil {
		s.fail(errors.Wrapf(err, "failed to write restitch report for %v", outputPath))
		return
	}

	s.setStage(StateDone, 1.0, "Done")
	s.log.Infof("Restitch run %v complete in %v: %v", runId, result.ProcessingTime, outputPath)
	s.listener.OnCompleted(result)
}
