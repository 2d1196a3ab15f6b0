package main

import (
	"errors"
	"fmt"
	"os"

	msgsize "github.com/foxcpp/go-msgsize"
	"github.com/urfave/cli"
)

func verifyLimit(ctx *cli.Context) error {
	f, err := requireFleet()
	if err != nil {
		return err
	}

	limit, err := parseBytesArg(ctx)
	if err != nil {
		return err
	}

	servers, err := selectedServers(ctx, f)
	if err != nil {
		return err
	}

	probed := 0
	mismatched := 0
	for _, srv := range servers {
		if srv.Probe == "" {
			continue
		}
		probed++

		res, err := msgsize.ProbeAppendLimit(srv.Probe, srv.ProbeTLS, ctx.Duration("timeout"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			mismatched++
			continue
		}

		switch {
		case !res.Advertised:
			fmt.Printf("%s: limit not advertised\n", srv.Name)
			mismatched++
		case res.Limit == nil:
			fmt.Printf("%s: per-mailbox limits\n", srv.Name)
			mismatched++
		case res.Matches(limit):
			fmt.Printf("%s: %d (ok)\n", srv.Name, *res.Limit)
		default:
			fmt.Printf("%s: %d (want %d)\n", srv.Name, *res.Limit, limit)
			mismatched++
		}
	}

	if probed == 0 {
		return errors.New("Error: No servers with a probe address configured")
	}
	if mismatched != 0 {
		return fmt.Errorf("Error: %d servers don't match", mismatched)
	}
	return nil
}
