package main

import (
	"errors"
	"fmt"
	"strconv"

	"conduit/internal/apperr"
	"conduit/internal/model"
	"conduit/internal/output"
	"conduit/internal/view"

	"github.com/spf13/cobra"
)

func newCommentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Read and write the comments of an article",
	}

	cmd.AddCommand(newCommentListCmd(a))
	cmd.AddCommand(newCommentAddCmd(a))
	cmd.AddCommand(newCommentDeleteCmd(a))
	return cmd
}

func newCommentListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <articleID>",
		Short: "List the comments of an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseArticleID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := a.loadCtx(cmd.Context())
			defer cancel()
			comments, err := a.comments.List(ctx, id)
			if err != nil {
				a.printer.Error("could not load comments: %s", apperr.UserMessage(err))
				return reported(err)
			}

			if asJSON {
				return output.WriteJSON(a.printer.Out(), comments)
			}
			a.printer.Header(fmt.Sprintf("Comments (%d)", len(comments)))
			if len(comments) == 0 {
				return nil
			}
			return output.CommentTable(a.printer.Out(), comments)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCommentAddCmd(a *app) *cobra.Command {
	var author, content string
	var resume bool

	cmd := &cobra.Command{
		Use:   "add <articleID>",
		Short: "Post a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseArticleID(args[0])
			if err != nil {
				return err
			}

			page := view.NewArticleView(a.binding(cmd, false), a.articles, a.comments, id)
			form := page.CommentForm()
			if resume {
				found, err := form.Resume(cmd.Context())
				if err != nil {
					return err
				}
				if !found {
					a.printer.Warning("no draft saved for %s", form.Key())
				}
			}

			fields := form.Values()
			if cmd.Flags().Changed("author") {
				fields.AuthorName = author
			}
			if cmd.Flags().Changed("content") {
				fields.Content = content
			}
			form.Set(fields)

			if err := page.AddComment(cmd.Context()); err != nil {
				if a.store != nil && !errors.Is(err, view.ErrBusy) {
					a.printer.Info("your comment was kept, retry with --resume")
				}
				return a.mutationErr(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "your name")
	cmd.Flags().StringVar(&content, "content", "", "the comment")
	cmd.Flags().BoolVar(&resume, "resume", false, "start from the values of the last failed submit")
	return cmd
}

func newCommentDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <articleID> <commentID>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseArticleID(args[0])
			if err != nil {
				return err
			}
			commentID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid comment id %q", args[1])
			}

			page := view.NewArticleView(a.binding(cmd, yes), a.articles, a.comments, id)
			return a.mutationErr(page.DeleteComment(cmd.Context(), commentID))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
