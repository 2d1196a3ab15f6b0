package msgsize

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownService = errors.New("msgsize: unknown service")
	ErrUnknownServer  = errors.New("msgsize: unknown server")
	ErrNoRestartCmd   = errors.New("msgsize: no restart command configured")
)

func wrapErr(err error, desc string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(desc+": %w", err)
}

func wrapErrf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}
