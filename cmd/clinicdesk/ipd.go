package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

func (c *cli) ipdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipd",
		Short: "In-patient admissions",
	}
	newView := func(a *app) (*views.IPDView, error) {
		beds, err := views.NewBedsView(a.deps(), a.client)
		if err != nil {
			return nil, err
		}
		return views.NewIPDView(a.deps(), a.client, beds)
	}
	// admission guards and bed checks read the current copies
	loaded := func(ctx context.Context, a *app) (*views.IPDView, error) {
		v, err := newView(a)
		if err != nil {
			return nil, err
		}
		if err := a.load(ctx, views.KeyAdmissions, views.KeyBeds); err != nil {
			return nil, err
		}
		return v, nil
	}

	var status, search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print admissions",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := newView(a)
			if err != nil {
				return err
			}
			v.SetFilter(status, search)
			return a.show(ctx, v.Keys(), func() error { return a.render.Admissions(v.Rows()) })
		}),
	}
	listCmd.Flags().StringVar(&status, "status", "", "only this admission status")
	listCmd.Flags().StringVar(&search, "search", "", "patient name or admission number")

	var admit views.AdmitDraft
	admitCmd := &cobra.Command{
		Use:   "admit",
		Short: "Admit a patient",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			v, err := loaded(ctx, a)
			if err != nil {
				return err
			}
			form := v.AdmitForm()
			d := &form.Draft
			d.PatientID = admit.PatientID
			d.PatientName = admit.PatientName
			d.PatientPhone = admit.PatientPhone
			d.PatientAge = admit.PatientAge
			d.PatientGender = orDefault(admit.PatientGender, d.PatientGender)
			d.ChiefComplaint = admit.ChiefComplaint
			d.ProvisionalDiagnosis = admit.ProvisionalDiagnosis
			d.AttendingDoctorID = admit.AttendingDoctorID
			d.AttendingDoctorName = admit.AttendingDoctorName
			d.BedID = admit.BedID
			d.WardType = orDefault(admit.WardType, d.WardType)
			d.AdmissionType = orDefault(admit.AdmissionType, d.AdmissionType)
			d.TreatmentPlan = admit.TreatmentPlan
			return form.Submit(ctx)
		}),
	}
	f := admitCmd.Flags()
	f.StringVar(&admit.PatientID, "patient-id", "", "patient id")
	f.StringVar(&admit.PatientName, "name", "", "patient name")
	f.StringVar(&admit.PatientPhone, "phone", "", "patient phone")
	f.IntVar(&admit.PatientAge, "age", 0, "patient age")
	f.StringVar(&admit.PatientGender, "gender", "", "patient gender")
	f.StringVar(&admit.ChiefComplaint, "complaint", "", "chief complaint")
	f.StringVar(&admit.ProvisionalDiagnosis, "diagnosis", "", "provisional diagnosis")
	f.StringVar(&admit.AttendingDoctorID, "doctor-id", "", "attending doctor id")
	f.StringVar(&admit.AttendingDoctorName, "doctor-name", "", "attending doctor name")
	f.StringVar(&admit.BedID, "bed", "", "bed id or number")
	f.StringVar(&admit.WardType, "ward-type", "", "ward type")
	f.StringVar(&admit.AdmissionType, "type", "", "admission type")
	f.StringVar(&admit.TreatmentPlan, "plan", "", "treatment plan")

	var discharge views.DischargeDraft
	dischargeCmd := &cobra.Command{
		Use:   "discharge <admission-id>",
		Short: "Discharge a patient",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := loaded(ctx, a)
			if err != nil {
				return err
			}
			form := v.DischargeForm(args[0])
			d := &form.Draft
			d.DischargeType = orDefault(discharge.DischargeType, d.DischargeType)
			d.DischargeCondition = orDefault(discharge.DischargeCondition, d.DischargeCondition)
			d.DischargeSummary = discharge.DischargeSummary
			d.FinalDiagnosis = discharge.FinalDiagnosis
			return form.Submit(ctx)
		}),
	}
	f = dischargeCmd.Flags()
	f.StringVar(&discharge.DischargeType, "type", "", "discharge type")
	f.StringVar(&discharge.DischargeCondition, "condition", "", "condition at discharge")
	f.StringVar(&discharge.DischargeSummary, "summary", "", "discharge summary")
	f.StringVar(&discharge.FinalDiagnosis, "diagnosis", "", "final diagnosis")

	noteCmd := &cobra.Command{
		Use:   "note <admission-id> <text...>",
		Short: "Add a progress note",
		Args:  cobra.MinimumNArgs(2),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := loaded(ctx, a)
			if err != nil {
				return err
			}
			form := v.NoteForm(args[0])
			form.Draft.Note = strings.Join(args[1:], " ")
			return form.Submit(ctx)
		}),
	}

	var transfer views.BedTransferDraft
	transferCmd := &cobra.Command{
		Use:   "transfer-bed <admission-id>",
		Short: "Move a patient to another bed",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := loaded(ctx, a)
			if err != nil {
				return err
			}
			form := v.BedTransferForm(args[0])
			form.Draft.NewBedID = transfer.NewBedID
			form.Draft.Reason = transfer.Reason
			return form.Submit(ctx)
		}),
	}
	transferCmd.Flags().StringVar(&transfer.NewBedID, "bed", "", "new bed id or number")
	transferCmd.Flags().StringVar(&transfer.Reason, "reason", "", "transfer reason")

	lockCmd := &cobra.Command{
		Use:   "lock <admission-id>",
		Short: "Lock a discharged record",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := loaded(ctx, a)
			if err != nil {
				return err
			}
			return v.Lock(ctx, args[0])
		}),
	}

	var signature string
	signCmd := &cobra.Command{
		Use:   "sign <admission-id>",
		Short: "Sign the admission or discharge record",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, a *app, args []string) error {
			v, err := loaded(ctx, a)
			if err != nil {
				return err
			}
			return v.Sign(ctx, args[0], entities.SignatureType(signature))
		}),
	}
	signCmd.Flags().StringVar(&signature, "type", string(entities.SignatureTypeAdmission), "admission or discharge")

	cmd.AddCommand(listCmd, admitCmd, dischargeCmd, noteCmd, transferCmd, lockCmd, signCmd)
	return cmd
}
