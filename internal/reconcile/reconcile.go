// Package reconcile drives one ingest pass over a release: it walks the
// manifest's task groups, applies the inclusion policy, assigns speaker
// identities and output paths, materializes assets, folds metadata, and
// persists the ledger exactly once at the end of a clean run.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voxpull/internal/config"
	"voxpull/internal/consent"
	"voxpull/internal/fetch"
	"voxpull/internal/fileutil"
	"voxpull/internal/identity"
	"voxpull/internal/ledger"
	"voxpull/internal/logging"
	"voxpull/internal/manifest"
	"voxpull/internal/media"
	"voxpull/internal/metadata"
	"voxpull/internal/naming"
	"voxpull/internal/policy"
	"voxpull/internal/runlog"
	"voxpull/internal/services"
)

// Fetcher materializes one payload at its destination path.
type Fetcher interface {
	Download(ctx context.Context, url, dest string) (fetch.Result, error)
}

// Normalizer fixes up a materialized payload in place.
type Normalizer interface {
	Normalize(ctx context.Context, path string) error
}

type ffmpegNormalizer struct {
	binary string
}

func (n ffmpegNormalizer) Normalize(ctx context.Context, path string) error {
	return media.Normalize(ctx, n.binary, path)
}

// Options are the per-run CLI switches.
type Options struct {
	Language string
	// IgnoreRejected enables the task-group gate on grouping releases.
	IgnoreRejected bool
	// DryRun runs policy and allocation but fetches nothing and never
	// persists the ledger; assets become zero-byte placeholders.
	DryRun bool
}

// Summary is the end-of-run report.
type Summary struct {
	RunID       string
	ReleaseName string
	Admitted    int
	Skipped     int
	// Failed counts uploads whose fetch or normalization failed; these are
	// warnings folded into one final line, not run failures.
	Failed      int
	NewSpeakers int
	ExportPath  string
	DryRun      bool
}

// Driver owns one run. It is not reusable; build a fresh one per run.
type Driver struct {
	cfg      *config.Config
	opts     Options
	logger   *slog.Logger
	registry *ledger.Ledger
	alloc    *identity.Allocator

	fetcher    Fetcher
	normalizer Normalizer
	renderer   consent.Renderer
	journal    *runlog.Store
	now        func() time.Time

	acoustic map[string]string
}

// Option customizes the driver.
type Option func(*Driver)

// WithFetcher overrides the HTTP fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(d *Driver) {
		if fetcher != nil {
			d.fetcher = fetcher
		}
	}
}

// WithNormalizer overrides the payload normalizer.
func WithNormalizer(normalizer Normalizer) Option {
	return func(d *Driver) {
		if normalizer != nil {
			d.normalizer = normalizer
		}
	}
}

// WithRenderer overrides the consent renderer.
func WithRenderer(renderer consent.Renderer) Option {
	return func(d *Driver) {
		if renderer != nil {
			d.renderer = renderer
		}
	}
}

// WithJournal attaches a run journal. Without one the run is not journaled.
func WithJournal(journal *runlog.Store) Option {
	return func(d *Driver) {
		d.journal = journal
	}
}

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// New builds a driver over a loaded ledger.
func New(cfg *config.Config, registry *ledger.Ledger, opts Options, logger *slog.Logger, setters ...Option) *Driver {
	driver := &Driver{
		cfg:      cfg,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "reconcile"),
		registry: registry,
		alloc:    identity.NewAllocator(registry, cfg.Release.SpeakerIDWidth),
		fetcher:  fetch.NewClient(cfg.Fetch.TimeoutSeconds, fetch.WithProgress(cfg.Fetch.Progress)),
		normalizer: ffmpegNormalizer{
			binary: cfg.Fetch.FFmpegBinary,
		},
		renderer: consent.JSONArchiver{},
		now:      time.Now,
	}
	for _, setter := range setters {
		setter(driver)
	}
	return driver
}

// Inputs are the parsed release files a run consumes.
type Inputs struct {
	Release     *manifest.Release
	ScriptCodes map[string]string
	// Acoustic maps upload id to its CM_AcousticEnvironment value.
	Acoustic map[string]string
}

// Run executes the full pass. A fatal error aborts immediately and the
// ledger file is left exactly as it was; transient fetch failures are
// tolerated, counted, and summarized.
func (d *Driver) Run(ctx context.Context, inputs Inputs) (*Summary, error) {
	release := inputs.Release
	d.acoustic = inputs.Acoustic
	summary := &Summary{ReleaseName: release.Name, DryRun: d.opts.DryRun}

	if d.journal != nil {
		run, err := d.journal.BeginRun(ctx, release.Name, d.opts.Language, d.opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("journal run: %w", err)
		}
		summary.RunID = run.ID
	}

	limits := policy.Thresholds{
		MinApprovedUploads:   d.cfg.Release.MinApprovedUploads,
		DeliveredCap:         d.cfg.Release.DeliveredCap,
		GroupRejectAllowance: d.cfg.Release.GroupRejectAllowance,
	}
	approved := release.ApprovedCountByUser()
	resolver := naming.NewResolver(d.cfg.Paths.OutputDir, release.Name)
	aggregator := metadata.NewAggregator(inputs.ScriptCodes, manifest.DefaultTopicTables(),
		d.opts.Language, d.cfg.Release.RecordingDevice, d.cfg.Release.MobilePlaceholder)

	d.logger.Info("run started",
		logging.String(logging.FieldRelease, release.Name),
		logging.Int("task_groups", len(release.Tasks)),
		logging.Bool("dry_run", d.opts.DryRun))

	for gi := range release.Tasks {
		group := &release.Tasks[gi]
		if err := d.processGroup(ctx, group, release, resolver, aggregator, approved, limits, summary); err != nil {
			return nil, err
		}
	}

	summary.NewSpeakers = len(d.alloc.NewEntries())

	if !d.opts.DryRun {
		d.registry.Merge(d.alloc.NewEntries())
		// A run that admitted nothing against a fresh registry leaves no
		// ledger file behind.
		if d.registry.Len() > 0 {
			if err := d.registry.Save(); err != nil {
				return nil, fmt.Errorf("persist ledger: %w", err)
			}
		}
	}

	exportPath, err := aggregator.Finalize(resolver.Root(), d.now())
	if err != nil {
		return nil, fmt.Errorf("export metadata: %w", err)
	}
	summary.ExportPath = exportPath
	if exportPath == "" {
		d.logger.Info("no metadata export written: release produced no rows",
			logging.String(logging.FieldRelease, release.Name))
	}

	if d.journal != nil {
		if err := d.journal.FinishRun(ctx, summary.RunID, summary.Admitted, summary.Skipped, summary.Failed, exportPath); err != nil {
			return nil, fmt.Errorf("journal run: %w", err)
		}
	}

	d.logger.Info("run finished",
		logging.String(logging.FieldRelease, release.Name),
		logging.Int("admitted", summary.Admitted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("new_speakers", summary.NewSpeakers))
	return summary, nil
}

func (d *Driver) processGroup(ctx context.Context, group *manifest.TaskGroup, release *manifest.Release,
	resolver *naming.Resolver, aggregator *metadata.Aggregator, approved map[string]int,
	limits policy.Thresholds, summary *Summary) error {

	if policy.SkipGroup(group, release.Grouping, d.opts.IgnoreRejected, limits) {
		d.logger.Info("skipping rejected task group",
			logging.String(logging.FieldTask, group.Name),
			logging.Int("rejected_members", group.RejectedCount()))
		for ui := range group.Uploads {
			summary.Skipped++
			d.recordEvent(ctx, summary.RunID, runlog.Event{
				UploadID: group.Uploads[ui].ID,
				Verdict:  runlog.VerdictSkipped,
				Reason:   string(policy.ReasonGroupRejected),
			})
		}
		return nil
	}

	// Events are buffered so the group representative, the last admitted
	// upload, can be flagged before anything reaches the journal.
	var events []runlog.Event
	lastAdmitted := -1

	for ui := range group.Uploads {
		upload := &group.Uploads[ui]
		event, err := d.processUpload(ctx, upload, group, release, resolver, aggregator, approved, limits, summary)
		if err != nil {
			return err
		}
		if event.Verdict == runlog.VerdictAdmitted {
			lastAdmitted = len(events)
		}
		events = append(events, event)
	}

	if lastAdmitted >= 0 {
		events[lastAdmitted].Representative = true
	}
	for _, event := range events {
		d.recordEvent(ctx, summary.RunID, event)
	}
	return nil
}

func (d *Driver) processUpload(ctx context.Context, upload *manifest.UploadRecord, group *manifest.TaskGroup,
	release *manifest.Release, resolver *naming.Resolver, aggregator *metadata.Aggregator,
	approved map[string]int, limits policy.Thresholds, summary *Summary) (runlog.Event, error) {

	event := runlog.Event{UploadID: upload.ID}

	entry, inLedger := d.registry.Get(upload.UserKey)
	facts := policy.UploadFacts{
		AcousticEnvironment: d.acousticFor(upload.ID),
		ApprovedCount:       approved[upload.UserKey],
		DeliveredCount:      entry.DeliveredCount,
		InLedger:            inLedger,
	}
	decision := policy.EvaluateUpload(facts, limits)
	if !decision.Admit {
		summary.Skipped++
		event.Verdict = runlog.VerdictSkipped
		event.Reason = string(decision.Reason)
		d.logger.Debug("upload skipped",
			logging.String(logging.FieldUploadID, upload.ID),
			logging.String(logging.FieldReason, string(decision.Reason)))
		return event, nil
	}

	consentFacts, err := consent.ResolveFacts(upload.ConsentForm)
	if err != nil {
		return event, fmt.Errorf("upload %s: %w", upload.ID, err)
	}

	// Scriptless uploads are valid: they are fetched and folded into the
	// speaker row, they just produce no sidecar files.
	hasScript := upload.HasScript()
	var text string
	if hasScript {
		text, err = manifest.ExtractScriptText(upload.ScriptData)
		if err != nil {
			return event, fmt.Errorf("upload %s: %w", upload.ID, err)
		}
	}
	background := hasScript && strings.TrimSpace(text) == strings.TrimSpace(d.cfg.Release.BackgroundPrompt)

	speakerID := d.alloc.Allocate(upload.UserKey)
	event.SpeakerID = speakerID

	var asset naming.OutputAsset
	if background {
		slot := d.alloc.BumpBackground(upload.UserKey)
		asset, err = resolver.ResolveBackground(speakerID, slot)
		if err != nil {
			return event, fmt.Errorf("upload %s: %w", upload.ID, err)
		}
	} else {
		seq := d.alloc.BumpSession(upload.UserKey)
		asset = resolver.Resolve(speakerID, seq, naming.ExtFromFileName(upload.FileName))
	}
	event.AssetPath = asset.AssetPath

	// A failed fetch contributes nothing downstream: no metadata row and
	// no delivered bump, so a later re-run delivers it cleanly.
	if failed, err := d.materialize(ctx, upload, asset.AssetPath); err != nil {
		return event, err
	} else if failed {
		summary.Failed++
		event.Verdict = runlog.VerdictFailed
		event.Reason = "download error"
		return event, nil
	}

	observation := metadata.Observation{
		SpeakerID:           speakerID,
		AcousticEnvironment: facts.AcousticEnvironment,
		Age:                 consentFacts.Age,
		Gender:              consentFacts.Gender,
		Background:          background,
	}
	if hasScript {
		if !background {
			observation.Text = text
		}
		sidecar, err := aggregator.RecordUpload(observation)
		if err != nil {
			return event, fmt.Errorf("upload %s: %w", upload.ID, err)
		}
		if err := metadata.WriteSidecar(asset.SidecarPath, sidecar); err != nil {
			return event, fmt.Errorf("upload %s: %w", upload.ID, err)
		}
		if !background {
			scriptPath := naming.ScriptSidecarPath(asset.AssetPath)
			if err := fileutil.WriteFileAtomic(scriptPath, []byte(text), 0o644); err != nil {
				return event, fmt.Errorf("upload %s: write script sidecar: %w", upload.ID, err)
			}
		}
	} else {
		aggregator.FoldRow(observation)
	}
	if err := d.renderer.Render(upload.ConsentForm, release.Name, group.Name, resolver.SpeakerDir(speakerID)); err != nil {
		return event, fmt.Errorf("upload %s: %w", upload.ID, err)
	}

	d.alloc.AdvanceDelivered(upload.UserKey)
	summary.Admitted++
	event.Verdict = runlog.VerdictAdmitted
	d.logger.Info("upload admitted",
		logging.String(logging.FieldUploadID, upload.ID),
		logging.String(logging.FieldSpeaker, speakerID),
		logging.String("asset", asset.AssetPath))
	return event, nil
}

// materialize puts the payload at dest. The bool result reports a
// tolerated per-upload failure; the error result is fatal.
func (d *Driver) materialize(ctx context.Context, upload *manifest.UploadRecord, dest string) (bool, error) {
	if d.opts.DryRun {
		if err := fetch.Placeholder(dest); err != nil {
			return false, fmt.Errorf("upload %s: %w", upload.ID, err)
		}
		return false, nil
	}

	result, err := d.fetcher.Download(ctx, upload.URL, dest)
	if err != nil {
		if !services.IsFatal(err) {
			d.logger.Warn("fetch failed",
				logging.String(logging.FieldUploadID, upload.ID),
				logging.Error(err))
			return true, nil
		}
		return false, fmt.Errorf("upload %s: %w", upload.ID, err)
	}
	if result.Skipped {
		d.logger.Debug("payload already on disk",
			logging.String(logging.FieldUploadID, upload.ID),
			logging.String("asset", dest))
		return false, nil
	}

	if err := d.normalizer.Normalize(ctx, dest); err != nil {
		d.logger.Warn("payload normalization failed",
			logging.String(logging.FieldUploadID, upload.ID),
			logging.Error(err))
		return true, nil
	}
	return false, nil
}

func (d *Driver) acousticFor(uploadID string) string {
	return d.acoustic[uploadID]
}

func (d *Driver) recordEvent(ctx context.Context, runID string, event runlog.Event) {
	if d.journal == nil {
		return
	}
	event.RunID = runID
	if err := d.journal.RecordEvent(ctx, event); err != nil {
		d.logger.Warn("journal event failed",
			logging.String(logging.FieldUploadID, event.UploadID),
			logging.Error(err))
	}
}

// FinalMessage is the one-line human summary printed after a run.
func (s *Summary) FinalMessage() string {
	if s.Failed > 0 {
		return fmt.Sprintf("download error: %d upload(s) failed; the manifest's pre-signed URLs have likely expired, re-export and re-run", s.Failed)
	}
	return "download successful"
}
