package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	msgsize "github.com/foxcpp/go-msgsize"
	"github.com/urfave/cli"
)

func requireJournal(ctx *cli.Context) (*msgsize.Journal, error) {
	j, err := openJournal(ctx)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, errors.New("Error: --journal-driver and --journal-dsn are required")
	}
	return j, nil
}

func journalList(ctx *cli.Context) error {
	j, err := requireJournal(ctx)
	if err != nil {
		return err
	}

	recs, err := j.List(ctx.String("server"), ctx.Int("limit"))
	if err != nil {
		return err
	}

	if len(recs) == 0 && !ctx.GlobalBool("quiet") {
		fmt.Fprintln(os.Stderr, "No records.")
	}

	for _, rec := range recs {
		prev := "n/a"
		if rec.Prev != nil {
			prev = *rec.Prev
		}
		fmt.Printf("%d\t%s\t%s/%s\t%s@%s\t%s -> %s\n", rec.ID,
			rec.Time.UTC().Format(time.RFC3339),
			rec.Server, rec.Service, rec.Path, rec.Attr, prev, rec.New)
	}
	return nil
}

func journalExport(ctx *cli.Context) error {
	j, err := requireJournal(ctx)
	if err != nil {
		return err
	}

	recs, err := j.Export()
	if err != nil {
		return err
	}
	return msgsize.ExportJSON(os.Stdout, recs)
}

func journalPrune(ctx *cli.Context) error {
	j, err := requireJournal(ctx)
	if err != nil {
		return err
	}

	arg := ctx.Args().First()
	if arg == "" {
		return errors.New("Error: DURATION is required")
	}
	dur, err := time.ParseDuration(arg)
	if err != nil {
		return errors.New("Error: DURATION must use Go duration syntax (e.g. 720h)")
	}

	if !ctx.Bool("yes") {
		if !Confirmation("Are you sure you want to delete the old journal records?", false) {
			return errors.New("Cancelled")
		}
	}

	n, err := j.Prune(time.Now().Add(-dur))
	if err != nil {
		return err
	}
	if !ctx.GlobalBool("quiet") {
		fmt.Fprintf(os.Stderr, "Deleted %d records.\n", n)
	}
	return nil
}
