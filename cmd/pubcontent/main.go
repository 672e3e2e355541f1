// Command pubcontent lints, previews and publishes a directory of Markdown
// blog posts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eringen/pubcontent"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose    bool
	contentDir string
	envFile    string
	drafts     bool

	logger *zap.Logger
	cfg    pubcontent.SiteConfig
)

var rootCmd = &cobra.Command{
	Use:   "pubcontent",
	Short: "A content store for Markdown blog posts",
	Long: `pubcontent reads a directory of Markdown posts with YAML front matter,
checks them for authoring mistakes, renders them and publishes a static site.

Settings come from the environment (SITE_URL, CONTENT_DIR, ...), optionally
loaded from a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !(errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env")) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}

		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg = pubcontent.ConfigFromEnv()
		if contentDir != "" {
			cfg.ContentDir = contentDir
		}
		if cmd.Flags().Changed("drafts") {
			cfg.IncludeDrafts = drafts
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pubcontent version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pubcontent %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&contentDir, "content", "c", "", "Content directory (default $CONTENT_DIR or ./content)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Environment file to load")
	rootCmd.PersistentFlags().BoolVar(&drafts, "drafts", false, "Include documents under _drafts/")

	rootCmd.AddCommand(versionCmd, lintCmd, listCmd, showCmd, buildCmd, serveCmd, newCmd, initCmd)
}

// openStore opens the configured content directory.
func openStore() (*pubcontent.ContentStore, error) {
	return pubcontent.OpenContentStore(cfg.ContentDir,
		pubcontent.WithDrafts(cfg.IncludeDrafts),
		pubcontent.WithStoreLogger(logger))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
