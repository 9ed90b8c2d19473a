package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

func (a *App) profile(ctx context.Context, args []string) error {
	fs := a.flags("profile")
	email := fs.String("email", "", "user email, defaults to the logged-in user")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner(*email)
	if err != nil {
		return err
	}
	p, err := a.client.Directory.Profile(ctx, owner)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s <%s> %s\n", p.Name, p.Email, p.Role)
	if p.Age > 0 {
		fmt.Fprintf(a.out, "age %d, %s\n", p.Age, p.Gender)
	}
	if len(p.MedicalHistory) > 0 {
		fmt.Fprintf(a.out, "history: %s\n", strings.Join(p.MedicalHistory, ", "))
	}
	if p.Specialization != "" {
		fmt.Fprintf(a.out, "specialization: %s, contact: %s\n", p.Specialization, p.Contact)
	}
	if p.LatestECGResult != "" {
		fmt.Fprintf(a.out, "latest result: %s\n", p.LatestECGResult)
	}
	return nil
}

func (a *App) avatar(ctx context.Context, args []string) error {
	fs := a.flags("avatar")
	path := fs.String("file", "", "image file")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}
	img, err := os.ReadFile(*path)
	if err != nil {
		return err
	}
	if err := a.client.Directory.UploadProfileImage(ctx, owner, img); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "profile image updated")
	return nil
}

func (a *App) history(ctx context.Context, args []string) error {
	fs := a.flags("history")
	email := fs.String("email", "", "patient email, defaults to the logged-in user")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner(*email)
	if err != nil {
		return err
	}
	entries, err := a.client.Directory.History(ctx, owner)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "no classifications yet")
		return nil
	}
	for _, h := range entries {
		fmt.Fprintf(a.out, "%s  %-22s %.0f%%\n", h.Timestamp.Local().Format(time.DateTime), h.Result, h.Confidence*100)
	}
	return nil
}
