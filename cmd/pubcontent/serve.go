package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubcontent"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live preview server",
	Long: `Serves the site from a SQLite catalog of the content directory. With
--watch the catalog is rebuilt whenever a post changes.

Set ADMIN_PASSWORD and ADMIN_SESSION_SECRET to enable /admin/, where a
signed-in author sees future-dated posts and the lint report.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default $ADDR or :3000)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload when content changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	app := pubcontent.New(cfg, pubcontent.WithLogger(logger))
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Init(ctx); err != nil {
		return err
	}

	var watcher *pubcontent.Watcher
	if serveWatch {
		w, err := pubcontent.NewWatcher(cfg.ContentDir, 0, app.Reload, logger)
		if err != nil {
			return err
		}
		watcher = w
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Serve(gctx) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	return g.Wait()
}
