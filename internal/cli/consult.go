package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/client"
)

func (a *App) doctors(ctx context.Context, _ []string) error {
	doctors, err := a.client.Consultations.ListDoctors(ctx)
	if err != nil {
		return err
	}
	emails := make([]string, 0, len(doctors))
	for email := range doctors {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		d := doctors[email]
		fmt.Fprintf(a.out, "%-30s %-25s %s\n", email, d.Name, d.Specialization)
	}
	return nil
}

// consult sends the latest record to a doctor, prefilling the message with
// its classification.
func (a *App) consult(ctx context.Context, args []string) error {
	fs := a.flags("consult")
	in := client.CreateConsultationInput{}
	fs.StringVar(&in.DoctorEmail, "doctor", "", "doctor email")
	fs.StringVar(&in.PatientName, "name", "", "your name")
	fs.IntVar(&in.Age, "age", 0, "your age")
	fs.StringVar(&in.Phone, "phone", "", "phone number")
	fs.StringVar(&in.Message, "message", "", "message for the doctor")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}
	in.PatientEmail = owner

	view, err := a.client.Records.List(ctx, owner)
	if err != nil {
		return err
	}
	if latest := view.Visible(); len(latest) > 0 {
		in.Signal = latest[0].Signal
		if in.Message == "" && latest[0].TestResult != "" {
			in.Message = "Detected ECG signal indicating: " + latest[0].TestResult
		}
	}

	res, err := a.client.Consultations.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "consultation %s sent to %s\n", res.ID, in.DoctorEmail)
	return nil
}

func (a *App) consultations(ctx context.Context, args []string) error {
	fs := a.flags("consultations")
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := a.client.Auth.Current()
	if err != nil {
		return err
	}
	if s == nil {
		return &client.AuthError{Message: "not logged in"}
	}

	var list []client.Consultation
	if s.IsDoctor() {
		list, err = a.client.Consultations.ListForDoctor(ctx, s.Email)
	} else {
		list, err = a.client.Consultations.ListForPatient(ctx, s.Email)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "no consultations")
		return nil
	}
	for _, c := range list {
		fmt.Fprintf(a.out, "%s  %s  %s -> %s\n    %s\n", c.ID, c.Timestamp.Local().Format(time.DateTime), c.PatientEmail, c.DoctorEmail, c.Message)
		if c.Replied() {
			fmt.Fprintf(a.out, "    reply: %s\n", c.DoctorReply)
		}
	}
	return nil
}

func (a *App) reply(ctx context.Context, args []string) error {
	fs := a.flags("reply")
	patient := fs.String("patient", "", "patient email")
	text := fs.String("text", "", "reply text")
	if err := parse(fs, args); err != nil {
		return err
	}
	res, err := a.client.Consultations.Reply(ctx, *patient, *text)
	if err != nil {
		return err
	}
	if res.Overwrote {
		fmt.Fprintln(a.out, "reply sent, the previous reply was replaced")
	} else {
		fmt.Fprintln(a.out, "reply sent")
	}
	return nil
}
