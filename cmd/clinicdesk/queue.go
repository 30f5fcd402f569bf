package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

func (c *cli) queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Live token queue",
	}

	var filter emrapi.QueueFilter
	addFilter := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&filter.Department, "department", "", "only this department")
		cmd.Flags().StringVar(&filter.DoctorID, "doctor", "", "only this doctor id")
		cmd.Flags().StringVar(&filter.Status, "status", "", "only this token status")
	}
	newView := func(a *app) (*views.QueueView, error) {
		return views.NewQueueView(a.deps(), a.client, filter)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the queue once",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			return a.show(ctx, v.Keys(), func() error { return a.render.Queue(v.Counts(), v.Rows()) })
		}),
	}
	addFilter(listCmd)

	var board bool
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the queue on screen, refreshing on every change",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			if board {
				return a.watch(ctx, v.Keys(), func() error { return a.render.Board(v.Board()) })
			}
			return a.watch(ctx, v.Keys(), func() error { return a.render.Queue(v.Counts(), v.Rows()) })
		}),
	}
	addFilter(watchCmd)
	watchCmd.Flags().BoolVar(&board, "board", false, "show the waiting-room board instead of the full queue")

	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Print the waiting-room board",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			return a.show(ctx, []string{views.KeyQueue}, func() error { return a.render.Board(v.Board()) })
		}),
	}

	cmd.AddCommand(listCmd, watchCmd, boardCmd, c.issueCmd(newView), c.transferCmd(newView))
	for _, action := range []entities.TokenAction{
		entities.TokenActionCall,
		entities.TokenActionStart,
		entities.TokenActionComplete,
		entities.TokenActionNoShow,
		entities.TokenActionRecall,
		entities.TokenActionHold,
		entities.TokenActionResume,
	} {
		cmd.AddCommand(c.tokenActionCmd(action, newView))
	}
	return cmd
}

func (c *cli) issueCmd(newView func(*app) (*views.QueueView, error)) *cobra.Command {
	var (
		draft     views.IssueTokenDraft
		tokenType string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new token",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			form := v.IssueForm()
			fillIssueDraft(&form.Draft, draft, tokenType)
			if err := form.Submit(ctx); err != nil {
				return err
			}
			if token, ok := v.LastIssued(); ok {
				return a.render.Queue(views.CountTokens(v.Queue.Get()), []views.QueueRow{views.TokenRow(token)})
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&draft.PatientName, "name", "", "patient name")
	f.StringVar(&draft.PatientPhone, "phone", "", "patient phone")
	f.IntVar(&draft.PatientAge, "age", 0, "patient age")
	f.StringVar(&draft.PatientGender, "gender", "", "patient gender")
	f.StringVar(&draft.DoctorID, "doctor-id", "", "doctor id")
	f.StringVar(&draft.DoctorName, "doctor-name", "", "doctor name")
	f.StringVar(&draft.Department, "department", "", "department")
	f.StringVar(&tokenType, "type", "", "token type: regular, priority, emergency, vip or senior")
	f.StringVar(&draft.ChiefComplaint, "complaint", "", "chief complaint")
	return cmd
}

// fillIssueDraft copies the flags that were set over the form defaults
func fillIssueDraft(dst *views.IssueTokenDraft, src views.IssueTokenDraft, tokenType string) {
	dst.PatientName = src.PatientName
	dst.PatientPhone = src.PatientPhone
	dst.PatientAge = src.PatientAge
	dst.DoctorID = src.DoctorID
	dst.DoctorName = src.DoctorName
	dst.ChiefComplaint = src.ChiefComplaint
	dst.PatientGender = orDefault(src.PatientGender, dst.PatientGender)
	dst.Department = orDefault(src.Department, dst.Department)
	dst.TokenType = orDefault(entities.TokenType(tokenType), dst.TokenType)
}

func (c *cli) tokenActionCmd(action entities.TokenAction, newView func(*app) (*views.QueueView, error)) *cobra.Command {
	var req emrapi.TokenActionRequest
	cmd := &cobra.Command{
		Use:   string(action) + " <token-id>",
		Short: fmt.Sprintf("Move a token with %q", action),
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			// The token's current status decides whether the action is allowed.
			if err := a.load(ctx, views.KeyQueue); err != nil {
				return err
			}
			return v.Act(ctx, args[0], action, req)
		}),
	}
	switch action {
	case entities.TokenActionHold:
		cmd.Flags().StringVar(&req.Reason, "reason", "", "hold reason")
	case entities.TokenActionComplete:
		cmd.Flags().StringVar(&req.Notes, "notes", "", "consultation notes")
	}
	return cmd
}

func (c *cli) transferCmd(newView func(*app) (*views.QueueView, error)) *cobra.Command {
	var draft views.TransferDraft
	cmd := &cobra.Command{
		Use:   "transfer <token-id>",
		Short: "Transfer a token to another doctor or department",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			if err := a.load(ctx, views.KeyQueue); err != nil {
				return err
			}
			form := v.TransferForm(args[0])
			form.Draft.ToDoctorID = draft.ToDoctorID
			form.Draft.ToDepartment = draft.ToDepartment
			form.Draft.Reason = draft.Reason
			return form.Submit(ctx)
		}),
	}
	cmd.Flags().StringVar(&draft.ToDoctorID, "to-doctor", "", "target doctor id")
	cmd.Flags().StringVar(&draft.ToDepartment, "to-department", "", "target department")
	cmd.Flags().StringVar(&draft.Reason, "reason", "", "transfer reason")
	return cmd
}
