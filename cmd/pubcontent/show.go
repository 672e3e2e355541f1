package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
)

var (
	showWidth int
	showStyle string
	showHTML  bool
)

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Render one post in the terminal",
	Long: `Renders the post with the given slug (the file name without its date
prefix) as styled terminal text, or as a complete HTML page with --html.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().IntVarP(&showWidth, "width", "w", 80, "Wrap column")
	showCmd.Flags().StringVar(&showStyle, "style", "", "Terminal style: dark, light, notty (default: detect)")
	showCmd.Flags().BoolVar(&showHTML, "html", false, "Write the HTML page instead")
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	posts, err := store.Load(cmd.Context())
	if err != nil {
		var docErr *pubcontent.DocumentError
		if !errors.As(err, &docErr) {
			return err
		}
	}

	var post pubcontent.Post
	found := false
	for _, p := range posts {
		if p.Slug == args[0] {
			post, found = p, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%s: %w", args[0], pubcontent.ErrNotFound)
	}

	if showHTML {
		site := pubcontent.NewSite(cfg, logger)
		return site.RenderPost(cmd.Context(), cmd.OutOrStdout(), post, posts)
	}
	out, err := pubcontent.RenderTerminal(post, pubcontent.TerminalOptions{Width: showWidth, Style: showStyle})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
