package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/client"
)

func (a *App) records(ctx context.Context, args []string) error {
	fs := a.flags("records")
	email := fs.String("email", "", "patient email, defaults to the logged-in user")
	pages := fs.Int("pages", 1, "pages of 5 to show")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner(*email)
	if err != nil {
		return err
	}

	view, err := a.client.Records.List(ctx, owner)
	if err != nil {
		return err
	}
	visible := view.Visible()
	for i := 1; i < *pages; i++ {
		visible = view.LoadMore()
	}
	if len(visible) == 0 {
		fmt.Fprintln(a.out, "no records")
		return nil
	}
	for _, r := range visible {
		result := r.TestResult
		if result == "" {
			result = "unclassified"
		}
		fmt.Fprintf(a.out, "%s  %s  %-8s %4d samples  %s\n", r.ID, r.Timestamp.Local().Format(time.DateTime), r.Source, len(r.Signal), result)
		if r.DoctorResponse != "" {
			fmt.Fprintf(a.out, "    doctor: %s\n", r.DoctorResponse)
		}
	}
	if view.HasMore() {
		fmt.Fprintf(a.out, "showing %d of %d, use -pages for more\n", len(visible), view.Len())
	}
	return nil
}

// findRecord lists the owner's records and returns the one with id.
func (a *App) findRecord(ctx context.Context, owner, id string) (*client.Record, error) {
	view, err := a.client.Records.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	visible := view.Visible()
	for view.HasMore() {
		visible = view.LoadMore()
	}
	for i := range visible {
		if visible[i].ID == id {
			return &visible[i], nil
		}
	}
	return nil, &client.NotFoundError{Message: "Record not found"}
}

func (a *App) classify(ctx context.Context, args []string) error {
	fs := a.flags("classify")
	id := fs.String("record", "", "record id")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}
	rec, err := a.findRecord(ctx, owner, *id)
	if err != nil {
		return err
	}

	c, err := a.client.Records.Classify(ctx, owner, rec.Signal, rec.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s (%.0f%%)\n", rec.ID, c.Label, c.Confidence*100)
	return nil
}

func (a *App) image(ctx context.Context, args []string) error {
	fs := a.flags("image")
	id := fs.String("record", "", "record id")
	out := fs.String("out", "ecg.png", "output file")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}
	rec, err := a.findRecord(ctx, owner, *id)
	if err != nil {
		return err
	}

	img := a.client.Records.RenderImage(ctx, rec.Signal)
	if img == nil {
		fmt.Fprintln(a.out, "no image available")
		return nil
	}
	if err := os.WriteFile(*out, img, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "wrote %s\n", *out)
	return nil
}

func (a *App) deleteRecord(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	id := fs.String("record", "", "record id")
	if err := parse(fs, args); err != nil {
		return err
	}
	deleted, err := a.client.Records.Delete(ctx, *id, a.ask)
	if err != nil {
		return err
	}
	if deleted {
		fmt.Fprintln(a.out, "record deleted")
	} else {
		fmt.Fprintln(a.out, "cancelled")
	}
	return nil
}

func (a *App) simulate(ctx context.Context, args []string) error {
	fs := a.flags("simulate")
	signal := fs.String("signal", "", "comma-separated samples")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}
	res, err := a.client.Records.IngestSimulated(ctx, owner, *signal)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "stored %s with %d samples\n", res.RecordID, len(res.Signal))
	if res.Dropped > 0 {
		fmt.Fprintf(a.out, "warning: %d malformed values were ignored\n", res.Dropped)
	}
	return nil
}
