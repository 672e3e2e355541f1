package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
)

var (
	lintStrict bool
	lintStatic string

	pathStyle    = lipgloss.NewStyle().Bold(true)
	lineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check every post for metadata and code fence problems",
	Long: `Reports missing titles and dates, dates without a UTC offset, overlay
filters outside [0, 1], unclosed code fences and missing header images.
With --strict the front matter is also checked against the bundled JSON
schema, which additionally requires at least one tag.

Exits with status 1 when any error is found.`,
	Args: cobra.NoArgs,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Validate against the strict front matter schema")
	lintCmd.Flags().StringVar(&lintStatic, "static", "", "Directory header images are resolved against (default $STATIC_DIR)")
}

func runLint(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	opts := []pubcontent.LintOption{pubcontent.WithStrict(lintStrict)}
	static := cfg.StaticDir
	if lintStatic != "" {
		static = lintStatic
	}
	if info, err := os.Stat(static); err == nil && info.IsDir() {
		opts = append(opts, pubcontent.WithAssets(os.DirFS(static)))
	}
	linter, err := pubcontent.NewLinter(opts...)
	if err != nil {
		return err
	}

	report, err := linter.LintStore(cmd.Context(), store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, issue := range report.Issues {
		loc := pathStyle.Render(issue.Path)
		if issue.Line > 0 {
			loc += lineStyle.Render(":" + strconv.Itoa(issue.Line))
		}
		sev := warningStyle.Render(string(issue.Severity))
		if issue.Severity == pubcontent.SeverityError {
			sev = errorStyle.Render(string(issue.Severity))
		}
		fmt.Fprintf(out, "%s %s %s: %s\n", loc, sev, issue.Field, issue.Message)
	}

	summary := fmt.Sprintf("%d documents, %d errors, %d warnings", report.Documents, report.Errors(), report.Warnings())
	if report.OK() {
		fmt.Fprintln(out, okStyle.Render(summary))
		return nil
	}
	fmt.Fprintln(out, errorStyle.Render(summary))
	return fmt.Errorf("lint found %d errors", report.Errors())
}
