package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/raiahtisham/ecg-health-iq/internal/client"
)

func (a *App) upload(ctx context.Context, args []string) error {
	fs := a.flags("upload")
	path := fs.String("file", "", "CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(*path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res, err := a.client.Ingest.UploadCSV(ctx, client.File{Name: filepath.Base(*path), ContentType: contentType, Data: data}, owner)
	if err != nil {
		return err
	}
	a.printUpload(res)
	return nil
}

func (a *App) uploadText(ctx context.Context, args []string) error {
	fs := a.flags("upload-text")
	text := fs.String("text", "", "CSV content")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}
	res, err := a.client.Ingest.UploadCSVText(ctx, *text, owner)
	if err != nil {
		return err
	}
	a.printUpload(res)
	return nil
}

func (a *App) printUpload(res *client.UploadResult) {
	fmt.Fprintf(a.out, "%s (%.0f%%)", res.Label, res.Confidence*100)
	if res.RecordID != "" {
		fmt.Fprintf(a.out, ", saved as %s", res.RecordID)
	}
	fmt.Fprintln(a.out)
}

func (a *App) device(ctx context.Context, args []string) error {
	fs := a.flags("device")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.owner("")
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "waiting for the device...")
	reading, err := a.client.Ingest.TriggerRemoteDevice(ctx, owner)

	var pe *client.PersistError
	if errors.As(err, &pe) && a.ask.Confirm(ctx, Describe(err)+". Retry saving?") {
		reading, err = a.client.Ingest.RetryPersist(ctx, pe)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "stored %s with %d samples", reading.RecordID, len(reading.Signal))
	if reading.HeartRate != nil {
		fmt.Fprintf(a.out, ", heart rate %.0f bpm", *reading.HeartRate)
	}
	fmt.Fprintln(a.out)
	return nil
}
