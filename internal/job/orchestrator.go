package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/ytsongs/internal/model"
	"github.com/ytget/ytsongs/internal/platform"
	"github.com/ytget/ytsongs/internal/resolve"
)

// Framing log lines surrounding the per-video outcome stream
const (
	MsgLoadingPlaylist = "Loading playlist..."
	MsgComplete        = "Download and conversion complete."

	FoundVideosTemplate      = "Found %d videos in the playlist."
	DeletedTempFileTemplate  = "Deleted temporary file: %s"
	PlaylistErrorTemplate    = "Error loading playlist: %v"
	InvalidJobErrorTemplate  = "Error: %v"
	DestinationErrorTemplate = "Error preparing destination: %v"
)

// FetchFunc is the per-video unit of concurrent work.
type FetchFunc func(ctx context.Context, video model.VideoRef, format, dir string) model.Outcome

// LogFunc receives one human-readable progress line at a time. Calls are
// serialized; the caller does not need its own locking.
type LogFunc func(line string)

// DoneFunc receives the terminal summary, exactly once per run. A zero
// summary signals that the run failed before any video was dispatched.
type DoneFunc func(summary model.Summary)

// Orchestrator drives whole playlist downloads. It is intended to run off
// the caller's main goroutine; all feedback flows through the callbacks.
type Orchestrator struct {
	resolver resolve.PlaylistResolver
	fetch    FetchFunc
	logger   *slog.Logger
}

// NewOrchestrator creates a new orchestrator over the given resolver and
// per-video fetch function.
func NewOrchestrator(resolver resolve.PlaylistResolver, fetch FetchFunc, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		resolver: resolver,
		fetch:    fetch,
		logger:   logger,
	}
}

// Run executes one playlist download run. Every resolved video yields
// exactly one outcome line, in completion order, and onDone fires exactly
// once after all fetches have returned. One video's failure never aborts
// the others; only a resolve failure ends the run early.
func (o *Orchestrator) Run(ctx context.Context, spec model.JobSpec, onLog LogFunc, onDone DoneFunc) {
	logger := o.logger.With("run_id", uuid.NewString())

	if err := spec.Validate(); err != nil {
		logger.Error("job rejected", "error", err)
		onLog(fmt.Sprintf(InvalidJobErrorTemplate, err))
		onDone(model.Summary{})
		return
	}

	logger.Info("run started", "url", spec.PlaylistURL, "format", spec.Format, "dir", spec.Dir, "workers", spec.Workers)

	if err := o.prepareDestination(spec.Dir, onLog, logger); err != nil {
		onLog(fmt.Sprintf(DestinationErrorTemplate, err))
		onDone(model.Summary{})
		return
	}

	onLog(MsgLoadingPlaylist)
	playlist, err := o.resolver.Resolve(ctx, spec.PlaylistURL)
	if err != nil {
		logger.Error("playlist resolve failed", "url", spec.PlaylistURL, "error", err)
		onLog(fmt.Sprintf(PlaylistErrorTemplate, err))
		onDone(model.Summary{})
		return
	}

	total := playlist.Total()
	logger.Info("playlist resolved", "title", playlist.Title, "videos", total)
	onLog(fmt.Sprintf(FoundVideosTemplate, total))

	o.fanOut(ctx, spec, playlist.Videos, onLog, logger)

	logger.Info("run complete", "title", playlist.Title, "videos", total)
	onLog(MsgComplete)
	onDone(model.Summary{PlaylistTitle: playlist.Title, Total: total})
}

// prepareDestination ensures the destination directory exists and, when it
// pre-existed, sweeps temp files left behind by an interrupted run,
// reporting each deletion.
func (o *Orchestrator) prepareDestination(dir string, onLog LogFunc, logger *slog.Logger) error {
	existed, err := platform.CreateDirectoryIfNotExists(dir)
	if err != nil {
		logger.Error("failed to create destination", "dir", dir, "error", err)
		return err
	}
	if !existed {
		return nil
	}

	removed, err := platform.SweepTempFiles(dir)
	for _, path := range removed {
		logger.Info("removed stale temp file", "path", path)
		onLog(fmt.Sprintf(DeletedTempFileTemplate, path))
	}
	if err != nil {
		// Stale temps are a hygiene concern, not a reason to abort.
		logger.Warn("temp file sweep incomplete", "dir", dir, "error", err)
	}
	return nil
}

// fanOut dispatches one fetch per video across a pool bounded by
// spec.Workers and streams each outcome line as it completes. Outcome
// order is completion order, not playlist order.
func (o *Orchestrator) fanOut(ctx context.Context, spec model.JobSpec, videos []model.VideoRef, onLog LogFunc, logger *slog.Logger) {
	outcomes := make(chan model.Outcome)

	logged := make(chan struct{})
	go func() {
		defer close(logged)
		for outcome := range outcomes {
			if outcome.IsFailure() {
				logger.Warn("fetch failed", "url", outcome.URL, "error", outcome.Err)
			} else {
				logger.Debug("fetch finished", "kind", string(outcome.Kind), "title", outcome.Title)
			}
			onLog(outcome.LogLine())
		}
	}()

	var g errgroup.Group
	g.SetLimit(spec.Workers)

	for _, video := range videos {
		g.Go(func() error {
			// Cooperative cancellation: once the context is gone, the
			// remaining videos are reported without being fetched.
			if err := ctx.Err(); err != nil {
				outcomes <- model.Failed(video.URL, err)
				return nil
			}
			outcomes <- o.fetch(ctx, video, spec.Format, spec.Dir)
			return nil
		})
	}

	_ = g.Wait()
	close(outcomes)
	<-logged
}
