package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

func (c *cli) billingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Patient bills and payments",
	}
	newView := func(a *app) (*views.BillingView, error) {
		return views.NewBillingView(a.deps(), a.client)
	}

	var search, paymentStatus string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print bills",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			v.SetFilter(search, paymentStatus)
			return a.show(ctx, v.Keys(), func() error { return a.render.Bills(v.Rows()) })
		}),
	}
	listCmd.Flags().StringVar(&search, "search", "", "patient name or bill number")
	listCmd.Flags().StringVar(&paymentStatus, "payment-status", "", "only this payment status")

	var (
		bill    views.BillDraft
		items   []string
		preview bool
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bill from line items",
		Long: "Create a bill. Each --item is a comma separated list of key=value pairs:\n" +
			"  desc=Consultation,price=500[,qty=1][,discount=0][,tax=18][,type=consultation]",
		Args: cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			form := v.BillForm()
			d := &form.Draft
			d.PatientID = bill.PatientID
			d.DoctorID = bill.DoctorID
			d.BillType = orDefault(bill.BillType, d.BillType)
			d.Notes = bill.Notes
			for _, raw := range items {
				item, err := parseLineItem(raw)
				if err != nil {
					return a.dispatcher.Reject("billing.create", err)
				}
				if err := d.AddItem(item); err != nil {
					return a.dispatcher.Reject("billing.create", err)
				}
			}
			t := d.Totals()
			a.render.Message("Subtotal %.2f | Discount %.2f | Tax %.2f | Total %.2f",
				entities.RoundMoney(t.Subtotal), entities.RoundMoney(t.TotalDiscount),
				entities.RoundMoney(t.TotalTax), entities.RoundMoney(t.GrandTotal))
			if preview {
				return form.Validate()
			}
			return form.Submit(ctx)
		}),
	}
	f := createCmd.Flags()
	f.StringVar(&bill.PatientID, "patient-id", "", "patient id")
	f.StringVar(&bill.DoctorID, "doctor-id", "", "doctor id")
	f.StringVar(&bill.BillType, "type", "", "bill type (default opd)")
	f.StringVar(&bill.Notes, "notes", "", "notes")
	f.StringArrayVar(&items, "item", nil, "line item, repeatable")
	f.BoolVar(&preview, "preview", false, "print the totals without creating the bill")

	var payment views.PaymentDraft
	payCmd := &cobra.Command{
		Use:   "pay <bill-id>",
		Short: "Record a payment; the amount defaults to what is due",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			if err := a.load(ctx, views.KeyBills); err != nil {
				return err
			}
			form := v.PaymentForm(args[0])
			form.Draft.Amount = orDefault(payment.Amount, form.Draft.Amount)
			form.Draft.PaymentMethod = orDefault(payment.PaymentMethod, form.Draft.PaymentMethod)
			return form.Submit(ctx)
		}),
	}
	payCmd.Flags().Float64Var(&payment.Amount, "amount", 0, "amount paid")
	payCmd.Flags().StringVar(&payment.PaymentMethod, "method", "", "payment method (default cash)")

	finalizeCmd := &cobra.Command{
		Use:   "finalize <bill-id>",
		Short: "Finalize a draft bill",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			if err := a.load(ctx, views.KeyBills); err != nil {
				return err
			}
			return v.Finalize(ctx, args[0])
		}),
	}

	cmd.AddCommand(listCmd, createCmd, payCmd, finalizeCmd)
	return cmd
}

// parseLineItem reads "desc=X,price=N[,qty=N][,discount=N][,tax=N][,type=T]"
func parseLineItem(raw string) (entities.LineItem, error) {
	var item entities.LineItem
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return item, apperrors.NewValidationError(fmt.Sprintf("Item %q: expected key=value, got %q", raw, pair))
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		var dst *float64
		switch key {
		case "desc", "description":
			item.Description = value
			continue
		case "type":
			item.ItemType = value
			continue
		case "qty", "quantity":
			dst = &item.Quantity
		case "price":
			dst = &item.UnitPrice
		case "discount":
			dst = &item.Discount
		case "tax":
			dst = &item.TaxRate
		default:
			return item, apperrors.NewValidationError(fmt.Sprintf("Item %q: unknown field %q", raw, key))
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return item, apperrors.NewValidationError(fmt.Sprintf("Item %q: %s is not a number", raw, key))
		}
		*dst = n
	}
	return item, nil
}
