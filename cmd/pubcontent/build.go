package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent"
)

var (
	buildOut    string
	buildFuture bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Publish the static site",
	Long: `Writes the home page, one page per post, tag and category, RSS and Atom
feeds, a sitemap and the stylesheets. Files under the static directory are
copied to the output and header images are scaled down to
HEADER_IMAGE_MAX_WIDTH. Posts dated in the future are held back unless
--future is given.

Documents that fail to parse are reported and left out; the build still
fails so a broken post is never published silently.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "Output directory (default $OUTPUT_DIR or ./public)")
	buildCmd.Flags().BoolVar(&buildFuture, "future", false, "Publish posts dated in the future")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildOut != "" {
		cfg.OutputDir = buildOut
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	posts, loadErr := store.Load(cmd.Context())
	if loadErr != nil {
		var docErr *pubcontent.DocumentError
		if !errors.As(loadErr, &docErr) {
			return loadErr
		}
	}

	opts := []pubcontent.BuilderOption{
		pubcontent.WithFuture(buildFuture),
		pubcontent.WithBuildLogger(logger),
	}
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		opts = append(opts, pubcontent.WithStatic(os.DirFS(cfg.StaticDir)))
	}
	builder := pubcontent.NewBuilder(pubcontent.NewSite(cfg, logger), cfg.OutputDir, opts...)
	report, err := builder.Build(cmd.Context(), posts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "built %d posts into %s (%d pages, %d images) in %s\n",
		report.Posts, cfg.OutputDir, report.Pages, report.Images, report.Duration.Round(time.Millisecond))
	for _, slug := range report.Held {
		logger.Info("held back future post", zap.String("slug", slug))
	}
	if loadErr != nil {
		return fmt.Errorf("some documents were left out:\n%w", loadErr)
	}
	return nil
}
