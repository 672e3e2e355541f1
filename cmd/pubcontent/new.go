package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/scaffold"
)

var (
	newCategories []string
	newTags       []string
	newDate       string
	newDraft      bool
	newLanguage   string
)

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a post from the scaffold template",
	Long: `Creates content/_posts/YYYY-MM-DD-<slug>.md (or _drafts/<slug>.md with
--draft) with the title, the current date and the given categories and tags.

Example:
  pubcontent new "Unit Testing Static Methods In Swift" --categories swift --tags swift,json,decodable`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

var initCmd = &cobra.Command{
	Use:   "init <dir>",
	Short: "Create a new site skeleton",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	newCmd.Flags().StringSliceVar(&newCategories, "categories", nil, "Categories (comma separated)")
	newCmd.Flags().StringSliceVar(&newTags, "tags", nil, "Tags (comma separated)")
	newCmd.Flags().StringVar(&newDate, "date", "", `Publication date, e.g. "2020-05-28 12:24:03 -0600" (default now)`)
	newCmd.Flags().BoolVar(&newDraft, "draft", false, "Create the post under _drafts/")
	newCmd.Flags().StringVar(&newLanguage, "lang", "", "Language of the sample code region")
}

func runNew(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(args[0])
	slug := pubcontent.Slugify(title)
	if slug == "" {
		return fmt.Errorf("title %q has no characters usable in a slug", title)
	}

	date := time.Now().Truncate(time.Second)
	if newDate != "" {
		var err error
		if date, err = pubcontent.ParseDate(newDate); err != nil {
			return err
		}
	}

	meta := pubcontent.Metadata{
		Title:      title,
		Date:       date,
		Categories: newCategories,
		Tags:       newTags,
	}
	fm, err := meta.MarshalFrontMatter()
	if err != nil {
		return err
	}
	lang := newLanguage
	if lang == "" && len(newCategories) > 0 {
		lang = newCategories[0]
	}

	var buf bytes.Buffer
	if err := scaffold.WritePost(&buf, scaffold.PostData{
		FrontMatter: string(fm),
		Summary:     "Write the opening paragraph here. It becomes the summary on listing pages.",
		Language:    lang,
	}); err != nil {
		return err
	}

	// The document must survive its own parser before it is written.
	name := date.Format("2006-01-02") + "-" + slug + ".md"
	dir := filepath.Join(cfg.ContentDir, "_posts")
	if newDraft {
		name = slug + ".md"
		dir = filepath.Join(cfg.ContentDir, "_drafts")
	}
	if _, err := pubcontent.ParsePost(name, buf.Bytes()); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := args[0]
	created, err := scaffold.WriteSite(dir, scaffold.SiteData{
		SiteName: scaffold.ToTitle(filepath.Base(dir)),
		Date:     time.Now().Truncate(time.Second).Format(pubcontent.DateLayout),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range created {
		fmt.Fprintf(out, "  created %s\n", f)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintf(out, "  cd %s\n", dir)
	fmt.Fprintln(out, "  cp .env.example .env")
	fmt.Fprintln(out, "  pubcontent serve --watch")
	return nil
}
