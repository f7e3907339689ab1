package main

import (
	"conduit/internal/apperr"
	"conduit/internal/model"
	"conduit/internal/output"
	"conduit/internal/view"

	"github.com/spf13/cobra"
)

type homeJSON struct {
	Page        model.Page `json:"page"`
	PopularTags []string   `json:"popular_tags"`
}

func newHomeCmd(a *app) *cobra.Command {
	var page int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "home",
		Short: "Show the latest articles and the popular tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := view.NewHomeView(a.binding(cmd, false), a.articles, a.tags)
			if err := home.Load(cmd.Context()); err != nil {
				a.printer.Error("could not load articles: %s", apperr.UserMessage(err))
				return reported(err)
			}
			home.SetPage(page)

			if asJSON {
				return output.WriteJSON(a.printer.Out(), homeJSON{Page: home.Page(), PopularTags: home.PopularTags()})
			}
			return a.printer.HomePage(home.Page(), home.PopularTags())
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number, 10 articles per page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTagsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the popular tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.loadCtx(cmd.Context())
			defer cancel()

			tags, err := a.tags.Popular(ctx)
			if err != nil {
				a.printer.Error("could not load tags: %s", apperr.UserMessage(err))
				return reported(err)
			}

			if asJSON {
				return output.WriteJSON(a.printer.Out(), model.PopularTags{PopularTags: tags})
			}
			if len(tags) == 0 {
				a.printer.Info("No tags are here... yet.")
				return nil
			}
			for _, t := range tags {
				a.printer.Info("%s", t)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
