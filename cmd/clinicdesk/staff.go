package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

func (c *cli) staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Staff attendance and leave",
	}
	newView := func(a *app) (*views.StaffView, error) {
		return views.NewStaffView(a.deps(), a.client)
	}

	attendanceCmd := &cobra.Command{
		Use:   "attendance",
		Short: "Print today's attendance",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			return a.show(ctx, []string{views.KeyAttendance, views.KeyAttendanceSummary}, func() error {
				return a.render.Attendance(v.Counts(), v.Rows())
			})
		}),
	}

	attendanceAction := func(use, short string, do func(*views.StaffView) func(context.Context, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <staff-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: c.run(func(ctx context.Context, a *app, args []string) error {
				v, err := newView(a)
				if err != nil {
					return err
				}
				if err := a.load(ctx, views.KeyAttendance); err != nil {
					return err
				}
				return do(v)(ctx, args[0])
			}),
		}
	}
	checkInCmd := attendanceAction("check-in", "Record a manual check-in",
		func(v *views.StaffView) func(context.Context, string) error { return v.CheckIn })
	checkOutCmd := attendanceAction("check-out", "Record a manual check-out",
		func(v *views.StaffView) func(context.Context, string) error { return v.CheckOut })

	var pending bool
	leavesCmd := &cobra.Command{
		Use:   "leaves",
		Short: "Print leave requests",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			return a.show(ctx, []string{views.KeyLeaves}, func() error {
				if pending {
					return a.render.Leaves(v.PendingLeaves())
				}
				return a.render.Leaves(v.LeaveRows())
			})
		}),
	}
	leavesCmd.Flags().BoolVar(&pending, "pending", false, "only requests awaiting a decision")

	var leave views.LeaveDraft
	applyCmd := &cobra.Command{
		Use:   "apply-leave",
		Short: "Submit a leave request",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			form := v.LeaveForm()
			d := &form.Draft
			d.StaffID = leave.StaffID
			d.LeaveType = orDefault(leave.LeaveType, d.LeaveType)
			d.StartDate = leave.StartDate
			d.EndDate = leave.EndDate
			d.Reason = leave.Reason
			return form.Submit(ctx)
		}),
	}
	f := applyCmd.Flags()
	f.StringVar(&leave.StaffID, "staff-id", "", "staff id")
	f.StringVar(&leave.LeaveType, "type", "", "leave type (default casual)")
	f.StringVar(&leave.StartDate, "from", "", "first day YYYY-MM-DD")
	f.StringVar(&leave.EndDate, "to", "", "last day YYYY-MM-DD")
	f.StringVar(&leave.Reason, "reason", "", "reason")

	decide := func(use string, decision entities.LeaveDecision) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <leave-id>",
			Short: "Decide a pending leave request",
			Args:  cobra.ExactArgs(1),
			RunE: c.run(func(ctx context.Context, a *app, args []string) error {
				v, err := newView(a)
				if err != nil {
					return err
				}
				if err := a.load(ctx, views.KeyLeaves); err != nil {
					return err
				}
				return v.DecideLeave(ctx, args[0], decision)
			}),
		}
	}

	cmd.AddCommand(
		attendanceCmd,
		checkInCmd,
		checkOutCmd,
		leavesCmd,
		applyCmd,
		decide("approve-leave", entities.LeaveApprove),
		decide("reject-leave", entities.LeaveReject),
	)
	return cmd
}
