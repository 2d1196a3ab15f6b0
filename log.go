package msgsize

import (
	"log"
	"strconv"
)

// Logger is a minimal logging interface used for the audit trail and
// debug messages. stdlib log, as well as most loggers, can be adapted
// to it trivially.
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
	Debugf(format string, v ...interface{})
	Debugln(v ...interface{})
}

type globalLogger struct{}

func (globalLogger) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

func (globalLogger) Println(v ...interface{}) {
	log.Println(v...)
}

func (globalLogger) Debugf(format string, v ...interface{}) {}

func (globalLogger) Debugln(v ...interface{}) {}

type DummyLogger struct{}

func (DummyLogger) Printf(format string, v ...interface{}) {}
func (DummyLogger) Println(v ...interface{})               {}
func (DummyLogger) Debugf(format string, v ...interface{}) {}
func (DummyLogger) Debugln(v ...interface{})               {}

func (p *Patcher) logChange(file string, ch Change) {
	p.Opts.Log.Printf("%s@%s: %s -> %s \t{\"file\":%s}",
		ch.Path, ch.Attr, ch.prevForLog(), strconv.Quote(ch.New), strconv.Quote(file))
}

func (p *Patcher) logFileErr(err error, when, file string) {
	if err == nil {
		return
	}
	p.Opts.Log.Printf("%s: %v \t{\"file\":%s}", when, err, strconv.Quote(file))
}
