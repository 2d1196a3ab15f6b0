package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	msgsize "github.com/foxcpp/go-msgsize"
	"github.com/urfave/cli"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var fleet *msgsize.Fleet
var journal *msgsize.Journal
var stdinScnr *bufio.Scanner

type stdLogger struct {
	debug bool
}

func (s stdLogger) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

func (s stdLogger) Println(v ...interface{}) {
	log.Println(v...)
}

func (s stdLogger) Debugf(format string, v ...interface{}) {
	if s.debug {
		log.Printf("debug: "+format, v...)
	}
}

func (s stdLogger) Debugln(v ...interface{}) {
	if s.debug {
		v = append([]interface{}{"debug:"}, v...)
		log.Println(v...)
	}
}

func logger(ctx *cli.Context) msgsize.Logger {
	if ctx.GlobalBool("quiet") {
		return msgsize.DummyLogger{}
	}
	return stdLogger{debug: ctx.GlobalBool("debug")}
}

func loadFleet(ctx *cli.Context) error {
	path := ctx.GlobalString("fleet")
	root := ctx.GlobalString("root")

	if path != "" && root != "" {
		return errors.New("Error: --fleet and --root are mutually exclusive")
	}
	if path != "" {
		var err error
		fleet, err = msgsize.LoadFleet(path)
		return err
	}
	if root != "" {
		fleet = msgsize.SingleServer(root)
	}
	return nil
}

func requireFleet() (*msgsize.Fleet, error) {
	if fleet == nil {
		return nil, errors.New("Error: --fleet or --root is required")
	}
	return fleet, nil
}

func newPatcher(ctx *cli.Context) (*msgsize.Patcher, error) {
	opts := msgsize.Opts{}
	opts.NoBackup = ctx.GlobalBool("no-backup")
	opts.BackupDir = ctx.GlobalString("backup-dir")
	opts.BackupCompression = ctx.GlobalString("compress")
	opts.BackupCompressionParams = ctx.GlobalString("compress-params")
	opts.Log = logger(ctx)

	return msgsize.NewPatcher(opts)
}

func openJournal(ctx *cli.Context) (*msgsize.Journal, error) {
	if journal != nil {
		return journal, nil
	}

	driver := ctx.GlobalString("journal-driver")
	dsn := ctx.GlobalString("journal-dsn")
	if driver == "" || dsn == "" {
		return nil, nil
	}

	opts := msgsize.JournalOpts{}
	opts.NoWAL = ctx.GlobalBool("no-wal")
	opts.AllowSchemaUpgrade = ctx.GlobalBool("allow-schema-upgrade")

	var err error
	journal, err = msgsize.NewJournal(driver, dsn, opts)
	return journal, err
}

func closeJournal(ctx *cli.Context) error {
	if journal != nil {
		return journal.Close()
	}
	return nil
}

func main() {
	stdinScnr = bufio.NewScanner(os.Stdin)

	app := cli.NewApp()
	app.Name = "msgsize-ctl"
	app.Copyright = "(c) 2020 Max Mazurov <fox.cpp@disroot.org>\n   Published under the terms of the MIT license (https://opensource.org/licenses/MIT)"
	app.Usage = "message size limit management utility"
	app.Version = fmt.Sprintf("%s (go-msgsize), %d (journal schema)", msgsize.VersionStr, msgsize.SchemaVersion)
	app.Before = loadFleet
	app.After = closeJournal

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "fleet",
			Usage:  "Path to the fleet configuration file",
			EnvVar: "MSGSIZE_FLEET",
		},
		cli.StringFlag{
			Name:   "root",
			Usage:  "Patch a single installation rooted at this directory instead of using a fleet file",
			EnvVar: "MSGSIZE_ROOT",
		},
		cli.BoolFlag{
			Name:  "quiet,q",
			Usage: "Don't print user-friendly messages to stderr",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Print debug messages",
		},
		cli.BoolFlag{
			Name:  "no-backup",
			Usage: "Don't write backup copies before overwriting configuration files\n\t\tWARNING: The previous contents will be irrecoverably lost!",
		},
		cli.StringFlag{
			Name:  "backup-dir",
			Usage: "Write backup copies to the specified directory instead of next to the original file",
		},
		cli.StringFlag{
			Name:   "compress",
			Usage:  "Compression algorithm for backup copies; valid values: lz4, zstd",
			EnvVar: "MSGSIZE_COMPRESS",
		},
		cli.StringFlag{
			Name:  "compress-params",
			Usage: "Compression algorithm parameters (usually the level)",
		},
		cli.StringFlag{
			Name:   "journal-driver",
			Usage:  "SQL driver to use for the change journal",
			EnvVar: "MSGSIZE_JOURNAL_DRIVER",
		},
		cli.StringFlag{
			Name:   "journal-dsn",
			Usage:  "Data Source Name of the change journal\n\t\tWARNING: Provided only for debugging convenience. Don't leave your passwords in shell history!",
			EnvVar: "MSGSIZE_JOURNAL_DSN",
		},
		cli.BoolFlag{
			Name:  "allow-schema-upgrade",
			Usage: "Allow go-msgsize to automatically update journal schema to version msgsize-ctl is compiled with\n\t\tWARNING: Make a backup before using this flag!",
		},
		cli.BoolFlag{
			Name:  "no-wal",
			Usage: "(SQLite only) Don't force WAL mode",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "limits",
			Usage: "Message size limits management",
			Subcommands: []cli.Command{
				{
					Name:        "set",
					Usage:       "Set the message size limit across the fleet",
					Description: "Rewrites the size limit attributes in the configuration file of every selected service on every selected server. BYTES is converted to the units each attribute uses.",
					ArgsUsage:   "BYTES",
					Flags: []cli.Flag{
						cli.StringSliceFlag{
							Name:  "service,s",
							Usage: "Patch only the named service. Can be specified multiple times",
						},
						cli.StringSliceFlag{
							Name:  "server",
							Usage: "Patch only the named server. Can be specified multiple times",
						},
						cli.BoolFlag{
							Name:  "restart,r",
							Usage: "Restart the web server on each patched server",
						},
						cli.BoolFlag{
							Name:  "json",
							Usage: "Print per-file reports as JSON lines",
						},
						cli.BoolFlag{
							Name:  "yes,y",
							Usage: "Don't ask for confirmation",
						},
					},
					Action: limitsSet,
				},
				{
					Name:  "get",
					Usage: "Show the currently configured limit values",
					Flags: []cli.Flag{
						cli.StringSliceFlag{
							Name:  "service,s",
							Usage: "Show only the named service. Can be specified multiple times",
						},
						cli.StringSliceFlag{
							Name:  "server",
							Usage: "Show only the named server. Can be specified multiple times",
						},
					},
					Action: limitsGet,
				},
			},
		},
		{
			Name:  "servers",
			Usage: "Fleet servers management",
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "Show servers defined in the fleet configuration",
					Action: serversList,
				},
				{
					Name:        "restart",
					Usage:       "Run the configured web server restart command",
					Description: "Without NAME all servers carrying a restart command are restarted.",
					ArgsUsage:   "[NAME]",
					Flags: []cli.Flag{
						cli.BoolFlag{
							Name:  "yes,y",
							Usage: "Don't ask for confirmation",
						},
					},
					Action: serversRestart,
				},
			},
		},
		{
			Name:        "verify",
			Usage:       "Check advertised IMAP limits across the fleet",
			Description: "Connects to the IMAP endpoint of every server with a probe address configured and compares the advertised APPENDLIMIT value against BYTES.",
			ArgsUsage:   "BYTES",
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  "server",
					Usage: "Probe only the named server. Can be specified multiple times",
				},
				cli.DurationFlag{
					Name:  "timeout,t",
					Usage: "Connection timeout",
					Value: 10 * time.Second,
				},
			},
			Action: verifyLimit,
		},
		{
			Name:  "journal",
			Usage: "Change journal inspection",
			Subcommands: []cli.Command{
				{
					Name:  "list",
					Usage: "Show recorded changes, newest first",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "server",
							Usage: "Show only changes applied to the named server",
						},
						cli.IntFlag{
							Name:  "limit,n",
							Usage: "Maximum number of records to show",
							Value: 25,
						},
					},
					Action: journalList,
				},
				{
					Name:   "export",
					Usage:  "Dump all records as JSON lines",
					Action: journalExport,
				},
				{
					Name:        "prune",
					Usage:       "Delete records older than the specified duration",
					Description: "DURATION uses Go syntax, e.g. 720h for 30 days.",
					ArgsUsage:   "DURATION",
					Flags: []cli.Flag{
						cli.BoolFlag{
							Name:  "yes,y",
							Usage: "Don't ask for confirmation",
						},
					},
					Action: journalPrune,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
