package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/client"
)

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	in := client.RegisterInput{}
	fs.StringVar(&in.Role, "role", client.RolePatient, "patient or doctor")
	fs.StringVar(&in.Name, "name", "", "full name")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.IntVar(&in.Age, "age", 0, "age in years")
	fs.StringVar(&in.Gender, "gender", "", "gender")
	history := fs.String("history", "", "comma-separated medical history")
	fs.StringVar(&in.Specialization, "specialization", "", "doctor specialization")
	fs.StringVar(&in.Contact, "contact", "", "doctor contact")
	if err := parse(fs, args); err != nil {
		return err
	}
	for _, item := range strings.Split(*history, ",") {
		if item = strings.TrimSpace(item); item != "" {
			in.MedicalHistory = append(in.MedicalHistory, item)
		}
	}

	pw, err := a.ask.password("Password")
	if err != nil {
		return err
	}
	in.Password = pw

	p, err := a.client.Auth.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s as %s, you can log in now\n", p.Email, p.Role)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email address")
	role := fs.String("role", client.RolePatient, "patient or doctor")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		v, err := a.ask.line("Email")
		if err != nil {
			return err
		}
		*email = v
	}
	pw, err := a.ask.password("Password")
	if err != nil {
		return err
	}

	res, err := a.client.Auth.Login(ctx, *email, pw, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "welcome %s, session valid until %s\n", res.Principal.Name, res.Session.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) logout(context.Context, []string) error {
	if err := a.client.Auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *App) whoami(context.Context, []string) error {
	s, err := a.client.Auth.Current()
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s) until %s\n", s.Email, s.Role, s.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) refresh(ctx context.Context, _ []string) error {
	s, err := a.client.Auth.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "session renewed until %s\n", s.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) resetPassword(ctx context.Context, args []string) error {
	fs := a.flags("reset-password")
	email := fs.String("email", "", "email address")
	if err := parse(fs, args); err != nil {
		return err
	}
	pw, err := a.ask.password("New password")
	if err != nil {
		return err
	}
	if err := a.client.Auth.ResetPassword(ctx, *email, pw); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "password updated")
	return nil
}
