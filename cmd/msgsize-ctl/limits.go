package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	msgsize "github.com/foxcpp/go-msgsize"
	"github.com/urfave/cli"
)

func parseBytesArg(ctx *cli.Context) (int64, error) {
	arg := ctx.Args().First()
	if arg == "" {
		return 0, errors.New("Error: BYTES is required")
	}

	val, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || val < 0 {
		return 0, errors.New("Error: BYTES must be a non-negative integer")
	}
	return val, nil
}

func selectedServers(ctx *cli.Context, f *msgsize.Fleet) ([]msgsize.Server, error) {
	names := ctx.StringSlice("server")
	if len(names) == 0 {
		return f.Servers, nil
	}

	servers := make([]msgsize.Server, 0, len(names))
	for _, name := range names {
		srv, err := f.Server(name)
		if err != nil {
			return nil, err
		}
		servers = append(servers, srv)
	}
	return servers, nil
}

func limitsSet(ctx *cli.Context) error {
	f, err := requireFleet()
	if err != nil {
		return err
	}

	limit, err := parseBytesArg(ctx)
	if err != nil {
		return err
	}

	svcs, err := msgsize.SelectServices(f.ServiceTable(), ctx.StringSlice("service"))
	if err != nil {
		return err
	}

	servers, err := selectedServers(ctx, f)
	if err != nil {
		return err
	}

	if len(servers) > 1 && !ctx.Bool("yes") {
		prompt := fmt.Sprintf("Are you sure you want to patch %d servers?", len(servers))
		if !Confirmation(prompt, false) {
			return errors.New("Cancelled")
		}
	}

	p, err := newPatcher(ctx)
	if err != nil {
		return err
	}

	j, err := openJournal(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, srv := range servers {
		for _, svc := range svcs {
			rep, err := p.ApplyLimit(srv.Root, svc, limit)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed++
				continue
			}

			if ctx.Bool("json") {
				if err := msgsize.ReportJSON(os.Stdout, srv.Name, svc.Name, rep); err != nil {
					return err
				}
			} else {
				printReport(ctx, srv.Name, svc.Name, rep)
			}

			if j != nil {
				if err := j.Record(srv.Name, svc.Name, limit, rep); err != nil {
					return err
				}
			}
		}

		if ctx.Bool("restart") {
			out, err := srv.RestartWebServer()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Stderr.Write(out)
				failed++
				continue
			}
			if !ctx.GlobalBool("quiet") {
				fmt.Fprintf(os.Stderr, "Restarted web server on %s.\n", srv.Name)
			}
		}
	}

	if failed != 0 {
		return fmt.Errorf("Error: %d operations failed", failed)
	}
	return nil
}

func printReport(ctx *cli.Context, server, service string, rep msgsize.FileReport) {
	if !rep.Changed() {
		fmt.Printf("%s/%s: unchanged\n", server, service)
		return
	}

	for _, ch := range rep.Changes {
		if !ch.Changed() {
			continue
		}
		prev := "n/a"
		if ch.Prev != nil {
			prev = *ch.Prev
		}
		fmt.Printf("%s/%s: %s@%s: %s -> %s\n", server, service, ch.Path, ch.Attr, prev, ch.New)
	}
	if rep.Backup != "" && !ctx.GlobalBool("quiet") {
		fmt.Fprintf(os.Stderr, "Backup written to %s.\n", rep.Backup)
	}
}

func limitsGet(ctx *cli.Context) error {
	f, err := requireFleet()
	if err != nil {
		return err
	}

	svcs, err := msgsize.SelectServices(f.ServiceTable(), ctx.StringSlice("service"))
	if err != nil {
		return err
	}

	servers, err := selectedServers(ctx, f)
	if err != nil {
		return err
	}

	p, err := newPatcher(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, srv := range servers {
		for _, svc := range svcs {
			_, readings, err := p.ReadLimits(srv.Root, svc)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed++
				continue
			}

			for _, r := range readings {
				val := "not set"
				if r.Value != nil {
					val = *r.Value
				}
				fmt.Printf("%s/%s: %s@%s: %s\n", srv.Name, svc.Name, r.Path, r.Attr, val)
			}
		}
	}

	if failed != 0 {
		return fmt.Errorf("Error: %d reads failed", failed)
	}
	return nil
}
