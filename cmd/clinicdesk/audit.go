package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

func (c *cli) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log",
	}

	var filter entities.AuditFilter
	addFilter := func(cmd *cobra.Command) {
		f := cmd.Flags()
		f.StringVar(&filter.EntityType, "entity", "", "only this entity type")
		f.StringVar(&filter.Action, "action", "", "only this action")
		f.StringVar(&filter.UserID, "user", "", "only this user id")
		f.StringVar(&filter.Severity, "severity", "", "low, medium, high or critical")
		f.StringVar(&filter.StartDate, "from", "", "start date YYYY-MM-DD")
		f.StringVar(&filter.EndDate, "to", "", "end date YYYY-MM-DD")
	}
	newView := func(a *app) (*views.AuditView, error) {
		v, err := views.NewAuditView(a.deps(), a.client)
		if err != nil {
			return nil, err
		}
		v.SetFilter(filter)
		return v, nil
	}

	var page int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the audit log",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			v.GoToPage(page)
			return a.show(ctx, v.Keys(), func() error { return a.render.Audit(v.Rows(), v.Page()) })
		}),
	}
	addFilter(listCmd)
	listCmd.Flags().IntVar(&page, "page", 1, "page number")
	listCmd.Flags().IntVar(&filter.Limit, "limit", entities.DefaultAuditPageSize, "entries per page")

	var dir string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Download the filtered log as CSV",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			path, err := v.Export(ctx, dir)
			if err != nil {
				return err
			}
			a.render.Message("%s", path)
			return nil
		}),
	}
	addFilter(exportCmd)
	exportCmd.Flags().StringVar(&dir, "dir", ".", "directory to write the CSV into")

	cmd.AddCommand(listCmd, exportCmd)
	return cmd
}
