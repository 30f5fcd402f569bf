package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/application/views"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

// inventoryFlags binds the item fields; only flags given on the command
// line replace the form's values
type inventoryFlags struct {
	d views.InventoryDraft
}

func (fl *inventoryFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&fl.d.MedicineName, "name", "", "medicine name")
	f.StringVar(&fl.d.GenericName, "generic", "", "generic name")
	f.StringVar(&fl.d.BrandName, "brand", "", "brand name")
	f.StringVar(&fl.d.Manufacturer, "manufacturer", "", "manufacturer")
	f.StringVar(&fl.d.Category, "category", "", "category (default tablet)")
	f.StringVar(&fl.d.Strength, "strength", "", "strength, e.g. 500mg")
	f.StringVar(&fl.d.Unit, "unit", "", "unit (default strip)")
	f.IntVar(&fl.d.CurrentStock, "stock", 0, "current stock")
	f.Float64Var(&fl.d.CostPrice, "cost", 0, "cost price")
	f.Float64Var(&fl.d.SellingPrice, "price", 0, "selling price")
	f.Float64Var(&fl.d.MRP, "mrp", 0, "maximum retail price")
	f.Float64Var(&fl.d.GSTRate, "gst", 0, "GST rate (default 12)")
	f.IntVar(&fl.d.MinStockLevel, "min-stock", 0, "minimum stock level (default 10)")
	f.IntVar(&fl.d.ReorderLevel, "reorder", 0, "reorder level (default 20)")
	f.StringVar(&fl.d.ExpiryDate, "expiry", "", "expiry date YYYY-MM-DD")
	f.BoolVar(&fl.d.RequiresPrescription, "rx", false, "requires a prescription")
}

func (fl *inventoryFlags) apply(changed func(string) bool, dst *views.InventoryDraft) {
	src := fl.d
	for name, set := range map[string]func(){
		"name":         func() { dst.MedicineName = src.MedicineName },
		"generic":      func() { dst.GenericName = src.GenericName },
		"brand":        func() { dst.BrandName = src.BrandName },
		"manufacturer": func() { dst.Manufacturer = src.Manufacturer },
		"category":     func() { dst.Category = src.Category },
		"strength":     func() { dst.Strength = src.Strength },
		"unit":         func() { dst.Unit = src.Unit },
		"stock":        func() { dst.CurrentStock = src.CurrentStock },
		"cost":         func() { dst.CostPrice = src.CostPrice },
		"price":        func() { dst.SellingPrice = src.SellingPrice },
		"mrp":          func() { dst.MRP = src.MRP },
		"gst":          func() { dst.GSTRate = src.GSTRate },
		"min-stock":    func() { dst.MinStockLevel = src.MinStockLevel },
		"reorder":      func() { dst.ReorderLevel = src.ReorderLevel },
		"expiry":       func() { dst.ExpiryDate = src.ExpiryDate },
		"rx":           func() { dst.RequiresPrescription = src.RequiresPrescription },
	} {
		if changed(name) {
			set()
		}
	}
}

func (c *cli) pharmacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pharmacy",
		Short: "Pharmacy inventory",
	}
	newView := func(a *app) (*views.PharmacyView, error) {
		return views.NewPharmacyView(a.deps(), a.client)
	}

	var search, stockStatus string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print inventory and stock alerts",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			v.SetFilter(search, stockStatus)
			return a.show(ctx, v.Keys(), func() error { return a.render.Inventory(v.Rows(), v.Alerts()) })
		}),
	}
	listCmd.Flags().StringVar(&search, "search", "", "medicine or generic name")
	listCmd.Flags().StringVar(&stockStatus, "stock-status", "", "in_stock, low_stock or out_of_stock")

	addFlags := &inventoryFlags{}
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an inventory item",
		Args:  cobra.NoArgs,
	}
	addCmd.RunE = c.run(func(ctx context.Context, a *app, _ []string) error {
		v, err := newView(a)
		if err != nil {
			return err
		}
		form := v.ItemForm("")
		addFlags.apply(addCmd.Flags().Changed, &form.Draft)
		return form.Submit(ctx)
	})
	addFlags.register(addCmd)

	updateFlags := &inventoryFlags{}
	updateCmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Update an inventory item; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
	}
	updateCmd.RunE = c.run(func(ctx context.Context, a *app, args []string) error {
		v, err := newView(a)
		if err != nil {
			return err
		}
		if err := a.load(ctx, views.KeyInventory); err != nil {
			return err
		}
		if _, ok := v.Find(args[0]); !ok {
			return a.dispatcher.Reject("pharmacy.update", apperrors.NewValidationError(fmt.Sprintf("Item %s not found", args[0])))
		}
		form := v.ItemForm(args[0])
		updateFlags.apply(updateCmd.Flags().Changed, &form.Draft)
		return form.Submit(ctx)
	})
	updateFlags.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			if err := a.load(ctx, views.KeyInventory); err != nil {
				return err
			}
			return v.Delete(ctx, args[0])
		}),
	}

	cmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd)
	return cmd
}
