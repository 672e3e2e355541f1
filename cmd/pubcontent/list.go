package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent"
)

var (
	listTag      string
	listCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listTag, "tag", "", "Only posts with this tag")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only posts in this category")
}

func runList(cmd *cobra.Command, args []string) error {
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
		logger.Warn("some documents could not be read; run lint for details", zap.Error(err))
	}

	f := pubcontent.Filter{Tag: listTag, Category: listCategory}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("DATE", "SLUG", "TITLE", "TAGS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	n := 0
	for _, p := range posts {
		if !f.Match(p) {
			continue
		}
		t.Row(p.Date.Format("2006-01-02"), p.Slug, p.Title, strings.Join(p.Tags, ", "))
		n++
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no posts")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
