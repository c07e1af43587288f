// Command scoreclips scores a directory of pose clip JSON files against the
// configured reference profiles and writes one JSON line per clip.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/cheggaaa/pb/v3"

	"github.com/okian/pitchmech/internal/adapters/posesource"
	app "github.com/okian/pitchmech/internal/app"
	"github.com/okian/pitchmech/internal/config"
	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/pkg/logger"
)

const barTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}} {{rtime . "%s remain" "%s total" "???"}}`

var (
	dirPath  string
	outPath  string
	parallel int
	quiet    bool
)

func main() {
	flag.StringVar(&dirPath, "dir", "", "directory of clip JSON files")
	flag.StringVar(&outPath, "out", "", "output file (default stdout)")
	flag.IntVar(&parallel, "parallel", 4, "clips scored concurrently")
	flag.BoolVar(&quiet, "quiet", false, "hide the progress bar")
	flag.Parse()

	if dirPath == "" {
		os.Stderr.WriteString("-dir must be provided\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	// Logs go to stderr so stdout stays machine-readable.
	if err := logger.Init(logger.WithLevel(cfg.LogLevel), logger.WithFormat(cfg.LogFormat), logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("scoreclips")

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "scoring failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) (err error) {
	paths, err := clipFiles(dirPath)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no clip files in %s", dirPath)
	}

	// Only the synchronous scorer is used, so no workers are needed.
	cfg.WorkerCount = 1
	svc := app.New(app.WithConfig(cfg), app.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, cerr := os.Create(outPath)
		if cerr != nil {
			return cerr
		}
		defer closeOutput(f, outPath, &err)
		out = f
	}

	var bar *pb.ProgressBar
	if !quiet {
		bar = pb.ProgressBarTemplate(barTemplate).New(len(paths)).
			SetWriter(os.Stderr).
			Set("prefix", "Scoring").
			Start()
		defer bar.Finish()
	}

	var summary Summary
	summary, err = scoreFiles(ctx, svc, paths, out, parallel, bar)
	log.Info(ctx, "scoring finished",
		logger.Int("clips", len(paths)),
		logger.Int("scored", summary.Scored),
		logger.Int("unscorable", summary.Unscorable),
		logger.Int("failed", summary.Failed),
	)
	return err
}

// clipFiles lists the JSON files in dir in name order.
// closeOutput closes the results file and reports a close failure through
// errp unless an earlier error is already set. Buffered writes can fail here.
func closeOutput(c io.Closer, path string, errp *error) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("closing %s: %w", path, cerr)
	}
}

func clipFiles(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ClipScorer scores one decoded clip.
type ClipScorer interface {
	ScoreClip(ctx context.Context, clip model.Clip) (deviation.ClipDeviation, error)
}

// Line is one output record.
type Line struct {
	File      string                   `json:"file"`
	ClipID    string                   `json:"clip_id,omitempty"`
	Status    model.ClipStatus         `json:"status"`
	Deviation *deviation.ClipDeviation `json:"deviation,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// Summary counts outcomes.
type Summary struct {
	Scored     int
	Unscorable int
	Failed     int
}

// scoreFiles scores paths with up to parallel goroutines. Lines are
// written in path order. Only write failures and cancellation are returned.
func scoreFiles(ctx context.Context, scorer ClipScorer, paths []string, out io.Writer, parallel int, bar *pb.ProgressBar) (Summary, error) {
	if parallel < 1 {
		parallel = 1
	}
	lines := make([]Line, len(paths))
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return Summary{}, err
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			if bar != nil {
				defer bar.Increment()
			}
			lines[i] = scoreFile(ctx, scorer, path)
		}(i, path)
	}
	wg.Wait()

	var sum Summary
	enc := json.NewEncoder(out)
	for _, l := range lines {
		switch l.Status {
		case model.StatusScored:
			sum.Scored++
		case model.StatusUnscorable:
			sum.Unscorable++
		default:
			sum.Failed++
		}
		if err := enc.Encode(l); err != nil {
			return sum, fmt.Errorf("writing %s: %w", l.File, err)
		}
	}
	return sum, nil
}

func scoreFile(ctx context.Context, scorer ClipScorer, path string) Line {
	line := Line{File: filepath.Base(path), Status: model.StatusFailed}

	f, err := os.Open(path)
	if err != nil {
		line.Error = err.Error()
		return line
	}
	defer f.Close()

	clip, err := posesource.Decode(f)
	if err != nil {
		line.Error = err.Error()
		return line
	}
	line.ClipID = clip.ClipID

	dev, err := scorer.ScoreClip(ctx, clip)
	switch {
	case err == nil:
		line.Status = model.StatusScored
		line.Deviation = &dev
	case errors.Is(err, deviation.ErrUnscorableClip):
		line.Status = model.StatusUnscorable
		line.Deviation = &dev
		line.Error = err.Error()
	default:
		line.Error = err.Error()
	}
	return line
}
