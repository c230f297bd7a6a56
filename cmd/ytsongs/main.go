package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/ytget/ytsongs/internal/config"
	"github.com/ytget/ytsongs/internal/fetch"
	"github.com/ytget/ytsongs/internal/job"
	"github.com/ytget/ytsongs/internal/model"
	"github.com/ytget/ytsongs/internal/resolve"
	"github.com/ytget/ytsongs/internal/transcode"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	// Optional .env next to the binary; environment wins over defaults.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ytsongs: %v\n", err)
		os.Exit(1)
	}

	urlFlag := flag.String("url", "", "playlist URL (required)")
	formatFlag := flag.String("format", cfg.Format, "output audio format: mp3, wav, m4a, opus")
	dirFlag := flag.String("dir", cfg.DownloadDir, "destination directory")
	workersFlag := flag.Int("workers", cfg.Workers, "number of parallel downloads")
	flag.Parse()

	if *urlFlag == "" {
		fmt.Fprintln(os.Stderr, "ytsongs: -url is required")
		flag.Usage()
		os.Exit(2)
	}

	config.SetupLogger(cfg)
	slog.Info("ytsongs starting", "version", version)

	spec := model.JobSpec{
		PlaylistURL: *urlFlag,
		Format:      *formatFlag,
		Dir:         *dirFlag,
		Workers:     *workersFlag,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := resolve.NewService()
	fetcher := fetch.NewService(transcode.NewService())
	orchestrator := job.NewOrchestrator(resolver, fetcher.Fetch, slog.Default())

	var bar *progressbar.ProgressBar
	onLog := func(line string) {
		fmt.Println(line)

		// The framing line carries the total; size the bar from it and
		// advance it on every per-video outcome.
		var total int
		if _, err := fmt.Sscanf(line, job.FoundVideosTemplate, &total); err == nil && total > 0 {
			bar = progressbar.Default(int64(total), "downloading")
			return
		}
		if bar != nil && isOutcomeLine(line) {
			_ = bar.Add(1)
		}
	}

	var summary model.Summary
	orchestrator.Run(ctx, spec, onLog, func(s model.Summary) {
		summary = s
	})

	if bar != nil {
		_ = bar.Finish()
	}

	if summary.Failed() {
		os.Exit(1)
	}
	fmt.Printf("%s: %d videos processed\n", summary.PlaylistTitle, summary.Total)
}

func isOutcomeLine(line string) bool {
	return strings.HasPrefix(line, "Skipped ") ||
		strings.HasPrefix(line, "Downloaded ") ||
		strings.HasPrefix(line, "Error processing ")
}
