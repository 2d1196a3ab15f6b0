package main

import (
	"fmt"
	"os"
)

func Confirmation(prompt string, def bool) bool {
	selection := "y/N"
	if def {
		selection = "Y/n"
	}

	fmt.Fprintf(os.Stderr, "%s [%s]: ", prompt, selection)
	if !stdinScnr.Scan() {
		fmt.Fprintln(os.Stderr, stdinScnr.Err())
		return false
	}

	switch stdinScnr.Text() {
	case "Y", "y":
		return true
	case "N", "n":
		return false
	default:
		return def
	}
}
