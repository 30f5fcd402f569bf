package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

func (c *cli) bedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beds",
		Short: "Bed management",
	}
	newView := func(a *app) (*views.BedsView, error) {
		return views.NewBedsView(a.deps(), a.client)
	}

	var (
		filter emrapi.BedFilter
		wards  bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print beds and occupancy",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			v.SetFilter(filter)
			return a.show(ctx, v.Keys(), func() error {
				if wards {
					return a.render.Wards(v.Wards())
				}
				return a.render.Beds(v.Summary(), v.Rows())
			})
		}),
	}
	listCmd.Flags().StringVar(&filter.WardType, "ward", "", "only this ward type")
	listCmd.Flags().StringVar(&filter.Status, "status", "", "only this bed status")
	listCmd.Flags().BoolVar(&wards, "wards", false, "group availability by ward")

	var bed views.BedDraft
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create one bed",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			form := v.CreateForm()
			d := &form.Draft
			d.BedNumber = bed.BedNumber
			d.WardType = orDefault(bed.WardType, d.WardType)
			d.WardName = bed.WardName
			d.RoomNumber = bed.RoomNumber
			d.FloorNumber = bed.FloorNumber
			d.BedType = orDefault(bed.BedType, d.BedType)
			d.HasOxygen = bed.HasOxygen
			d.HasMonitor = bed.HasMonitor
			d.HasVentilator = bed.HasVentilator
			d.DailyRate = bed.DailyRate
			return form.Submit(ctx)
		}),
	}
	f := createCmd.Flags()
	f.StringVar(&bed.BedNumber, "number", "", "bed number")
	f.StringVar(&bed.WardType, "ward-type", "", "ward type")
	f.StringVar(&bed.WardName, "ward-name", "", "ward name")
	f.StringVar(&bed.RoomNumber, "room", "", "room number")
	f.StringVar(&bed.FloorNumber, "floor", "", "floor number")
	f.StringVar(&bed.BedType, "type", "", "bed type")
	f.BoolVar(&bed.HasOxygen, "oxygen", false, "has oxygen supply")
	f.BoolVar(&bed.HasMonitor, "monitor", false, "has a monitor")
	f.BoolVar(&bed.HasVentilator, "ventilator", false, "has a ventilator")
	f.Float64Var(&bed.DailyRate, "rate", 0, "daily rate")

	var bulk views.BulkBedDraft
	bulkCmd := &cobra.Command{
		Use:   "bulk-create",
		Short: "Create a numbered run of beds in one ward",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			form := v.BulkForm()
			d := &form.Draft
			d.WardType = orDefault(bulk.WardType, d.WardType)
			d.WardName = bulk.WardName
			d.StartNumber = orDefault(bulk.StartNumber, d.StartNumber)
			d.Count = orDefault(bulk.Count, d.Count)
			d.BedType = orDefault(bulk.BedType, d.BedType)
			d.DailyRate = bulk.DailyRate
			return form.Submit(ctx)
		}),
	}
	f = bulkCmd.Flags()
	f.StringVar(&bulk.WardType, "ward-type", "", "ward type")
	f.StringVar(&bulk.WardName, "ward-name", "", "ward name")
	f.IntVar(&bulk.StartNumber, "start", 0, "first bed number (default 1)")
	f.IntVar(&bulk.Count, "count", 0, "number of beds (default 10)")
	f.StringVar(&bulk.BedType, "type", "", "bed type")
	f.Float64Var(&bulk.DailyRate, "rate", 0, "daily rate")

	var notes string
	statusCmd := &cobra.Command{
		Use:   "status <bed-id> <available|maintenance|cleaning>",
		Short: "Change a bed's status",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			if err := a.load(ctx, views.KeyBeds); err != nil {
				return err
			}
			return v.SetStatus(ctx, args[0], entities.BedStatus(args[1]), notes)
		}),
	}
	statusCmd.Flags().StringVar(&notes, "notes", "", "maintenance notes")

	deactivateCmd := &cobra.Command{
		Use:   "deactivate <bed-id>",
		Short: "Take a bed out of service",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			if err := a.load(ctx, views.KeyBeds); err != nil {
				return err
			}
			return v.Deactivate(ctx, args[0])
		}),
	}

	cmd.AddCommand(listCmd, createCmd, bulkCmd, statusCmd, deactivateCmd)
	return cmd
}
