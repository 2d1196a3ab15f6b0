package main

import (
	"errors"
	"fmt"
	"os"

	msgsize "github.com/foxcpp/go-msgsize"
	"github.com/urfave/cli"
)

func serversList(ctx *cli.Context) error {
	f, err := requireFleet()
	if err != nil {
		return err
	}

	for _, srv := range f.Servers {
		line := srv.Name + "\t" + srv.Root
		if srv.Probe != "" {
			line += "\t" + srv.Probe
		}
		fmt.Println(line)
	}
	return nil
}

func serversRestart(ctx *cli.Context) error {
	f, err := requireFleet()
	if err != nil {
		return err
	}

	var servers []msgsize.Server
	if name := ctx.Args().First(); name != "" {
		srv, err := f.Server(name)
		if err != nil {
			return err
		}
		servers = []msgsize.Server{srv}
	} else {
		for _, srv := range f.Servers {
			if len(srv.Restart) != 0 {
				servers = append(servers, srv)
			}
		}
		if len(servers) == 0 {
			return errors.New("Error: No servers with a restart command configured")
		}
	}

	if !ctx.Bool("yes") {
		if !Confirmation("Are you sure you want to restart the web servers? Active client sessions will be interrupted", false) {
			return errors.New("Cancelled")
		}
	}

	failed := 0
	for _, srv := range servers {
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

	if failed != 0 {
		return fmt.Errorf("Error: %d restarts failed", failed)
	}
	return nil
}
