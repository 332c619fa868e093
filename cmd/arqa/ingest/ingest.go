// Package ingestcmder provides the ingest command for indexing documents.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/app"
	"github.com/arqalabs/arqa/pkg/cliui"
	"github.com/arqalabs/arqa/pkg/ingest"
	"github.com/arqalabs/arqa/pkg/logger"
)

// debounce window for editors that write files in multiple events.
const watchSettle = 500 * time.Millisecond

type ingestCommander struct {
	paths []string
	watch bool

	configDir string
	debug     bool
	logger    *zap.Logger
}

const ingestLongDesc string = `Ingest documents into the vector index.

Each path is loaded, segmented into token-bounded chunks, embedded and
appended to the configured collection. Documents that fail to load or embed
are skipped with a warning; the rest of the batch continues.

Supported formats: .txt, .md, .pdf, .dbc, .cdd, .arxml.

With --watch, the given directories are monitored and new or changed
documents are ingested as they appear. Press Ctrl-C to stop.

Example:
  arqa ingest specs/autosar_com.pdf
  arqa ingest docs/ --watch
  arqa ingest network.dbc diagnostics.cdd`

const ingestShortDesc string = "Ingest documents into the vector index"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <paths...>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.paths = args

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run()
		},
	}

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Watch directories and ingest changes as they appear")

	return cmd
}

func (c *ingestCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	a, err := app.New(c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := expandPaths(c.paths)
	if err != nil {
		return err
	}

	if err := c.ingestBatch(ctx, a, files); err != nil {
		return err
	}

	if c.watch {
		return c.watchLoop(ctx, a)
	}
	return nil
}

// expandPaths resolves directories to their files, one level deep per
// directory tree walk. Explicit file paths pass through untouched so an
// unsupported extension still surfaces as a reported failure.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("inspecting %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	return files, nil
}

func (c *ingestCommander) ingestBatch(ctx context.Context, a *app.App, files []string) error {
	if len(files) == 0 {
		fmt.Println("Nothing to ingest.")
		return nil
	}

	var report *ingest.Report
	err := cliui.Step(os.Stdout, fmt.Sprintf("Ingesting %d document(s)", len(files)), func() error {
		var err error
		report, err = a.Pipeline.IngestPaths(ctx, files)
		return err
	})
	if err != nil {
		return err
	}

	c.printReport(report)
	return nil
}

func (c *ingestCommander) printReport(report *ingest.Report) {
	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Run:"),
		cliui.DimStyle.Render(report.RunID),
	)

	for _, doc := range report.Documents {
		line := fmt.Sprintf("%d chunk(s)", doc.Chunks)
		if doc.Dropped > 0 {
			line += fmt.Sprintf(", %d dropped", doc.Dropped)
		}
		fmt.Printf("  %s %s  %s\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(doc.Name),
			cliui.DimStyle.Render(line),
		)
	}
	for _, failure := range report.Failures {
		fmt.Printf("  %s %s  %s\n",
			cliui.FailMark,
			cliui.ValueStyle.Render(failure.Path),
			cliui.DimStyle.Render(failure.Err.Error()),
		)
	}

	fmt.Printf("\n  %s %d chunk(s) indexed, %d document(s) skipped\n\n",
		cliui.HeaderStyle.Render("Total:"),
		report.Chunks,
		len(report.Failures),
	)
}

// watchLoop re-ingests files as they are created or written under the watched
// directories. Events are debounced per path.
func (c *ingestCommander) watchLoop(ctx context.Context, a *app.App) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range c.paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", path, err)
		}
		target := path
		if !info.IsDir() {
			target = filepath.Dir(path)
		}
		if err := watcher.Add(target); err != nil {
			return fmt.Errorf("watching %s: %w", target, err)
		}
		c.logger.Info("watching", zap.String("path", target))
	}

	fmt.Println("  Watching for changes. Press Ctrl-C to stop.")

	pending := map[string]time.Time{}
	ticker := time.NewTicker(watchSettle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			var due []string
			for path, last := range pending {
				if now.Sub(last) >= watchSettle {
					due = append(due, path)
					delete(pending, path)
				}
			}
			if len(due) > 0 {
				if err := c.ingestBatch(ctx, a, due); err != nil {
					c.logger.Warn("ingestion failed", zap.Error(err))
				}
			}
		}
	}
}
