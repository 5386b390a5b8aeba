// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/fieldcode/compose"
	"github.com/danielhkuo/fieldcode/handlers"
	"github.com/danielhkuo/fieldcode/middleware"
	"github.com/danielhkuo/fieldcode/reconcile"
)

// maxLineSize bounds one JSON line; SMS bodies are far smaller.
const maxLineSize = 1 << 20

var ingestOutput string

var ingestCmd = &cobra.Command{
	Use:   "ingest [FILE]",
	Short: "Process a stream of messages",
	Long: `Read messages as JSON lines from FILE (or stdin), run each through the
full pipeline and write one JSON result per message.

Input lines look like:
  {"text": "1234PB15PS42AAB5", "sender": "+15550001111", "received_at": "2021-03-10T09:30:00Z"}

received_at defaults to now. Results are written in completion order and
carry the input line number. Messages are processed by --workers
concurrent workers; messages for the same observer, form and period are
serialized, across processes when --redis-addr is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", "", "Write results to this file instead of stdout")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.RequireStorage(); err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := cmd.OutOrStdout()
	if ingestOutput != "" {
		f, err := os.Create(ingestOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	h, err := handlers.NewMessageHandler(cat, store, reconcile.New(store, locker), cfg)
	if err != nil {
		return err
	}
	renderer, err := compose.NewRenderer(nil)
	if err != nil {
		return err
	}

	start := time.Now()
	handle := middleware.WithRecover(middleware.WithLogging(h.Handle, h.HashSender))
	stats, err := ingest(ctx, in, out, handle, renderer.Render, cfg.Workers)
	if err != nil {
		return err
	}

	summary := cmd.ErrOrStderr()
	printSuccess(summary, "Processed %s messages in %s: %s stored, %s rejected",
		humanize.Comma(int64(stats.Total)),
		time.Since(start).Round(time.Millisecond),
		humanize.Comma(int64(stats.Stored)),
		humanize.Comma(int64(stats.Rejected)),
	)
	if stats.Failed > 0 {
		printWarning(summary, "%s messages failed; see the error field in the output", humanize.Comma(int64(stats.Failed)))
		return fmt.Errorf("%d of %d messages failed", stats.Failed, stats.Total)
	}
	return nil
}

// ingestRecord is one output line.
type ingestRecord struct {
	Line    int              `json:"line"`
	Result  *handlers.Result `json:"result,omitempty"`
	Replies []string         `json:"replies,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type ingestStats struct {
	Total    int
	Stored   int
	Rejected int
	Failed   int
}

// ingest runs every line of r through handle with at most workers in
// flight. Per-message failures are recorded in the output and counted; the
// returned error is reserved for reading, writing and cancellation.
func ingest(
	ctx context.Context,
	r io.Reader,
	w io.Writer,
	handle middleware.HandlerFunc[*handlers.Result],
	render func(compose.Reply) ([]string, error),
	workers int,
) (ingestStats, error) {
	var (
		mu    sync.Mutex
		stats ingestStats
	)

	record := func(rec ingestRecord) error {
		mu.Lock()
		defer mu.Unlock()

		stats.Total++
		switch {
		case rec.Error != "":
			stats.Failed++
		case rec.Result.Stored():
			stats.Stored++
		default:
			stats.Rejected++
		}
		return middleware.WriteJSON(w, rec)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		n := lineNo
		line = bytes.Clone(line)
		g.Go(func() error {
			rec := ingestRecord{Line: n}

			msg, err := middleware.DecodeMessage(line, time.Now)
			if err != nil {
				rec.Error = err.Error()
				return record(rec)
			}

			res, err := handle(gctx, msg)
			if err != nil {
				slog.Error("message failed", "line", n, "error", err)
				rec.Error = err.Error()
				return record(rec)
			}
			rec.Result = res

			replies, err := render(res.Reply)
			if err != nil {
				return fmt.Errorf("failed to render reply for line %d: %w", n, err)
			}
			rec.Replies = replies
			return record(rec)
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}
