package main

import (
	"errors"
	"fmt"
	"os"

	"conduit/internal/apperr"
	"conduit/internal/model"
	"conduit/internal/output"
	"conduit/internal/view"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newArticleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article",
		Short: "Read and write articles",
	}

	cmd.AddCommand(newArticleListCmd(a))
	cmd.AddCommand(newArticleShowCmd(a))
	cmd.AddCommand(newArticleCreateCmd(a))
	cmd.AddCommand(newArticleEditCmd(a))
	cmd.AddCommand(newArticleDeleteCmd(a))
	return cmd
}

func newArticleListCmd(a *app) *cobra.Command {
	var page int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles, 10 per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.loadCtx(cmd.Context())
			defer cancel()

			articles, err := a.articles.List(ctx)
			if err != nil {
				a.printer.Error("could not load articles: %s", apperr.UserMessage(err))
				return reported(err)
			}

			p := model.Paginate(articles, page)
			if asJSON {
				return output.WriteJSON(a.printer.Out(), p)
			}
			if len(p.Articles) == 0 {
				a.printer.Info("No articles are here... yet.")
				return nil
			}
			t := output.NewTable(a.printer.Out(), "ID", "Title", "Description")
			for _, art := range p.Articles {
				t.AddRow(art.ID.String(), art.Title, art.Description)
			}
			return t.Render()
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

type articleJSON struct {
	Article  *model.Article  `json:"article"`
	Comments []model.Comment `json:"comments"`
}

func newArticleShowCmd(a *app) *cobra.Command {
	var asJSON, raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an article and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseArticleID(args[0])
			if err != nil {
				return err
			}

			page := view.NewArticleView(a.binding(cmd, false), a.articles, a.comments, id)
			if err := page.Load(cmd.Context()); err != nil {
				a.printer.Error("could not load article %s: %s", id, apperr.UserMessage(err))
				return reported(err)
			}

			if asJSON {
				return output.WriteJSON(a.printer.Out(), articleJSON{Article: page.Article(), Comments: page.CommentSection().Entries})
			}
			return a.printer.Article(page.Article(), page.CommentSection(), raw)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the body without markdown rendering")
	return cmd
}

// articleFlags are the editable fields; only flags the user set override the form.
type articleFlags struct {
	title, description, body, bodyFile string
	resume                             bool
}

func (f *articleFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "article title")
	flags.StringVar(&f.description, "description", "", "short description")
	flags.StringVar(&f.body, "body", "", "article body (markdown)")
	flags.StringVar(&f.bodyFile, "body-file", "", "read the body from a file")
	flags.BoolVar(&f.resume, "resume", false, "start from the values of the last failed submit")
}

func (f *articleFlags) apply(flags *pflag.FlagSet, fields model.ArticleFields) (model.ArticleFields, error) {
	if flags.Changed("title") {
		fields.Title = f.title
	}
	if flags.Changed("description") {
		fields.Description = f.description
	}
	if flags.Changed("body") {
		fields.Body = f.body
	}
	if f.bodyFile != "" {
		data, err := os.ReadFile(f.bodyFile)
		if err != nil {
			return fields, fmt.Errorf("reading body: %w", err)
		}
		fields.Body = string(data)
	}
	return fields, nil
}

func (a *app) submitArticle(cmd *cobra.Command, editor *view.ArticleEditor, f *articleFlags) error {
	form := editor.Form()
	if f.resume {
		found, err := form.Resume(cmd.Context())
		if err != nil {
			return err
		}
		if !found {
			a.printer.Warning("no draft saved for %s", form.Key())
		}
	}

	fields, err := f.apply(cmd.Flags(), form.Values())
	if err != nil {
		return err
	}
	form.Set(fields)

	article, err := editor.Submit(cmd.Context())
	if err != nil {
		if a.store != nil && !errors.Is(err, view.ErrBusy) {
			a.printer.Info("your changes were kept, retry with --resume")
		}
		return a.mutationErr(err)
	}
	a.printer.Info("id %s", article.ID)
	return nil
}

func newArticleCreateCmd(a *app) *cobra.Command {
	f := &articleFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			editor := view.NewArticleEditor(a.binding(cmd, false), a.articles)
			return a.submitArticle(cmd, editor, f)
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func newArticleEditCmd(a *app) *cobra.Command {
	f := &articleFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an existing article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseArticleID(args[0])
			if err != nil {
				return err
			}

			editor, err := view.EditArticleEditor(cmd.Context(), a.binding(cmd, false), a.articles, id)
			if err != nil {
				a.printer.Error("could not load article %s: %s", id, apperr.UserMessage(err))
				return reported(err)
			}
			return a.submitArticle(cmd, editor, f)
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func newArticleDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseArticleID(args[0])
			if err != nil {
				return err
			}

			page := view.NewArticleView(a.binding(cmd, yes), a.articles, a.comments, id)
			return a.mutationErr(page.DeleteArticle(cmd.Context()))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
