// Package cli is the ecgctl terminal front end. Each subcommand maps onto one
// client operation and reports failures as a single line.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/client"
)

// ErrUsage is returned for an unknown subcommand or bad flags.
var ErrUsage = errors.New("usage")

type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

// App dispatches subcommands against a client.
type App struct {
	client   *client.Client
	out      io.Writer
	ask      *prompter
	log      zerolog.Logger
	commands map[string]command
}

func NewApp(c *client.Client, in io.Reader, out io.Writer, log zerolog.Logger) *App {
	a := &App{
		client: c,
		out:    out,
		ask:    &prompter{in: bufio.NewReader(in), out: out},
		log:    log,
	}
	a.commands = map[string]command{
		"register":       {"create a patient or doctor account", a.register},
		"login":          {"log in and store the session", a.login},
		"logout":         {"clear the stored session", a.logout},
		"whoami":         {"show the stored session", a.whoami},
		"refresh":        {"renew the session token", a.refresh},
		"reset-password": {"set a new password", a.resetPassword},
		"profile":        {"show a user profile", a.profile},
		"avatar":         {"upload a profile image", a.avatar},
		"history":        {"show the classification history", a.history},
		"doctors":        {"list doctors", a.doctors},
		"records":        {"list ECG records, newest first", a.records},
		"classify":       {"classify a record", a.classify},
		"image":          {"render a record as PNG", a.image},
		"delete":         {"delete a record", a.deleteRecord},
		"simulate":       {"submit comma-separated samples", a.simulate},
		"upload":         {"upload a CSV file", a.upload},
		"upload-text":    {"submit CSV text", a.uploadText},
		"device":         {"acquire a signal from the device gateway", a.device},
		"consult":        {"ask a doctor to review your latest record", a.consult},
		"consultations":  {"list consultations", a.consultations},
		"reply":          {"answer a patient's consultation", a.reply},
	}
	return a
}

// Run executes args[0] with the remaining arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}
	cmd, ok := a.commands[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q\n", args[0])
		a.usage()
		return ErrUsage
	}
	err := cmd.run(ctx, args[1:])
	if err != nil && !errors.Is(err, ErrUsage) {
		a.log.Debug().Err(err).Str("command", args[0]).Msg("command failed")
	}
	return err
}

func (a *App) usage() {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: ecgctl <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-15s %s\n", name, a.commands[name].summary)
	}
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	return nil
}

// owner returns email, or the logged-in user when it is empty.
func (a *App) owner(email string) (string, error) {
	if email != "" {
		return email, nil
	}
	s, err := a.client.Auth.Current()
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", &client.AuthError{Message: "not logged in"}
	}
	return s.Email, nil
}

// Describe turns a client error into the single line shown to the user.
func Describe(err error) string {
	var (
		ve *client.ValidationError
		ae *client.AuthError
		ce *client.ConflictError
		nf *client.NotFoundError
		ne *client.NetworkError
		te *client.DeviceTimeoutError
		de *client.DeviceError
		pe *client.PersistError
		ue *client.UploadError
		cl *client.ClassificationError
	)
	switch {
	case errors.As(err, &pe):
		return "the signal was acquired but could not be saved: " + pe.Err.Error()
	case errors.As(err, &te):
		return "the device did not respond in time"
	case errors.As(err, &de):
		return "device error: " + de.Error()
	case errors.As(err, &cl):
		return "classification failed: " + cl.Err.Error()
	case errors.As(err, &ue):
		return "upload failed: " + ue.Err.Error()
	case errors.As(err, &ve):
		if ve.Field != "" {
			return fmt.Sprintf("invalid %s: %s", strings.ToLower(ve.Field), ve.Message)
		}
		return "invalid input: " + ve.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &ce):
		return ce.Message
	case errors.As(err, &nf):
		return nf.Message
	case errors.As(err, &ne):
		return "cannot reach the server, check your connection"
	default:
		return err.Error()
	}
}
