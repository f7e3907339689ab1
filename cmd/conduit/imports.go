package main

import (
	"errors"
	"fmt"
	"net/url"

	"conduit/internal/model"
	"conduit/internal/output"
	"conduit/internal/store"
	"conduit/internal/worker"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Turn web pages into articles",
	}

	cmd.AddCommand(newImportAddCmd(a))
	cmd.AddCommand(newImportRunCmd(a))
	cmd.AddCommand(newImportStatusCmd(a))
	return cmd
}

func newImportAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Queue a page for import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid url %q: must be an http or https URL", args[0])
			}

			st, err := a.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}

			job := model.NewImportJob(u.String())
			if err := st.EnqueueJob(cmd.Context(), &job); err != nil {
				return err
			}

			a.logger.Info("import queued", zap.String("id", job.ID.String()), zap.String("url", job.URL))
			a.printer.Success("queued %s", job.ID)
			return nil
		},
	}
}

func newImportRunCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process queued imports until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}

			w := worker.NewWorker(st, a.articles, a.cfg.Import.Rate, a.logger)
			if once {
				n, err := w.Drain(cmd.Context())
				if err != nil {
					return err
				}
				a.printer.Success("processed %d imports", n)
				return nil
			}

			a.printer.Info("waiting for imports, press Ctrl+C to stop")
			w.Start(cmd.Context())
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "exit when the queue is empty")
	return cmd
}

func newImportStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "status [jobID]",
		Short: "Show import jobs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}

			var jobs []model.ImportJob
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid job id %q", args[0])
				}
				job, err := st.GetJob(cmd.Context(), id)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("import %s not found", id)
				} else if err != nil {
					return err
				}
				jobs = append(jobs, *job)
			} else {
				jobs, err = st.ListJobs(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}

			if asJSON {
				return output.WriteJSON(a.printer.Out(), jobs)
			}
			if len(jobs) == 0 {
				a.printer.Info("no imports yet")
				return nil
			}
			return output.ImportTable(a.printer.Out(), jobs)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "how many recent jobs to list")
	return cmd
}
