package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/cli/output"
	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/spf13/cobra"
)

func (r *runner) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved articles, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.load(cmd.Context()); err != nil {
				return err
			}

			return r.printArticles(r.app.Articles.Snapshot().Visible())
		},
	}
}

func (r *runner) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an article with its extracted content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := r.requireAuth(cmd.Context()); err != nil {
				return err
			}

			a, err := r.app.Articles.View(cmd.Context(), id)
			if err != nil {
				return r.failure(err, r.app.Articles.Snapshot().Err)
			}

			if r.jsonOut {
				return r.p.JSON(a)
			}

			r.p.Header(a.Title)
			r.p.Print("%s", a.URL)

			if len(a.Tags) > 0 {
				r.p.Print("tags: %s", output.TagList(a.Tags))
			}

			if a.ImageURL != "" {
				r.p.Print("image: %s", r.app.Client.ImageURL(a.ImageURL))
			}

			if a.Excerpt != "" {
				r.p.Print("\n%s", r.p.Dim(a.Excerpt))
			}

			if a.Content != "" {
				r.p.Print("\n%s", a.Content)
			}

			return nil
		},
	}
}

func (r *runner) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save URL",
		Short: "Save a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.load(cmd.Context()); err != nil {
				return err
			}

			r.app.Articles.SetURLInput(args[0])

			a, err := r.app.Articles.Save(cmd.Context(), "")
			if err != nil {
				return r.failure(err, r.app.Articles.Snapshot().Err)
			}

			if r.jsonOut {
				return r.p.JSON(a)
			}

			r.p.Success("Saved #%d %s", a.ID, a.Title)
			r.warnIfStale()

			return nil
		},
	}
}

func (r *runner) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a saved article",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := r.load(cmd.Context()); err != nil {
				return err
			}

			if err := r.app.Articles.Delete(cmd.Context(), id); err != nil {
				return r.failure(err, r.app.Articles.Snapshot().Err)
			}

			r.p.Success("Deleted #%d", id)
			r.warnIfStale()

			return nil
		},
	}
}

func (r *runner) tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag ID NAME",
		Short: "Add a tag to an article",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := r.load(cmd.Context()); err != nil {
				return err
			}

			r.app.Articles.SetTagInput(id, args[1])

			if err := r.app.Articles.AddTag(cmd.Context(), id, ""); err != nil {
				return r.failure(err, r.app.Articles.Snapshot().Err)
			}

			r.p.Success("Tagged #%d with %q", id, strings.TrimSpace(args[1]))
			r.warnIfStale()

			return nil
		},
	}
}

func (r *runner) untagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untag ID TAG_ID",
		Short: "Remove a tag from an article",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			tagID, err := parseID(args[1])
			if err != nil {
				return err
			}

			if err := r.load(cmd.Context()); err != nil {
				return err
			}

			if err := r.app.Articles.RemoveTag(cmd.Context(), id, tagID); err != nil {
				return r.failure(err, r.app.Articles.Snapshot().Err)
			}

			r.p.Success("Removed tag %d from #%d", tagID, id)
			r.warnIfStale()

			return nil
		},
	}
}

func (r *runner) searchCmd() *cobra.Command {
	var byTag bool

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search saved articles by title, or by tag with --tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.requireAuth(cmd.Context()); err != nil {
				return err
			}

			kind := models.SearchByTitle
			if byTag {
				kind = models.SearchByTag
			}

			results, err := r.app.Articles.Search(cmd.Context(), strings.Join(args, " "), kind)
			if err != nil {
				return r.failure(err, r.app.Articles.Snapshot().Err)
			}

			return r.printArticles(results)
		},
	}

	cmd.Flags().BoolVar(&byTag, "tag", false, "match tag names instead of titles")

	return cmd
}

func (r *runner) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags [NAME]",
		Short: "List your tags, or the articles carrying tag NAME",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.requireAuth(cmd.Context()); err != nil {
				return err
			}

			if len(args) == 1 {
				articles, err := r.app.Client.ArticlesByTag(cmd.Context(), r.app.Session, args[0])
				if err != nil {
					return err
				}

				return r.printArticles(articles)
			}

			tags, err := r.app.Client.ListTags(cmd.Context(), r.app.Session)
			if err != nil {
				return err
			}

			if r.jsonOut {
				return r.p.JSON(tags)
			}

			if len(tags) == 0 {
				r.p.Info("No tags yet")

				return nil
			}

			return output.Tags(r.p.Out(), tags)
		},
	}
}

func (r *runner) watchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the article list on screen and refresh it periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := r.requireAuth(ctx); err != nil {
				return err
			}

			if interval <= 0 {
				interval = r.app.Config().Client.RefreshInterval
			}

			go r.app.Articles.BackgroundRefresh(ctx, interval)

			return r.watch(ctx, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (client.refreshInterval when zero)")

	return cmd
}

// watch prints the list whenever it differs from what was last shown and
// stops when ctx is done or the session ends.
func (r *runner) watch(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(max(interval/2, 10*time.Millisecond)) //nolint:gomnd
	defer t.Stop()

	var shown string

	for {
		st := r.app.Articles.Snapshot()

		if st.Loaded {
			if sig := signature(st.Articles); sig != shown {
				shown = sig

				r.p.Header("Articles at " + time.Now().Format("15:04:05"))

				if err := r.printArticles(st.Articles); err != nil {
					return err
				}
			}
		}

		if st.Err != "" && !r.app.Session.HasToken() {
			return fmt.Errorf("%s", st.Err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// load confirms the session and fetches the current list.
func (r *runner) load(ctx context.Context) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if err := r.app.Articles.Refresh(ctx); err != nil {
		return r.failure(err, r.app.Articles.Snapshot().Err)
	}

	return nil
}

// warnIfStale reports a refresh that failed after a change went through.
func (r *runner) warnIfStale() {
	if msg := r.app.Articles.Snapshot().Err; msg != "" {
		r.p.Warning("%s", msg)
	}
}

func (r *runner) printArticles(articles []models.Article) error {
	if r.jsonOut {
		return r.p.JSON(articles)
	}

	if len(articles) == 0 {
		r.p.Info("No articles")

		return nil
	}

	return output.Articles(r.p.Out(), articles)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}

	return id, nil
}

func signature(articles []models.Article) string {
	var b strings.Builder

	for _, a := range articles {
		b.WriteString(strconv.Itoa(a.ID))
		b.WriteString(":")
		b.WriteString(output.TagList(a.Tags))
		b.WriteString(";")
	}

	return b.String()
}
