// Command patchctl diffs, checks, applies and exports patches between records declared by a
// descriptor file.
//
//	patchctl --schema qso.yaml diff old.yaml new.yaml > change.json
//	patchctl --schema qso.yaml check change.json stored.yaml
//	patchctl --schema qso.yaml apply change.json stored.yaml
//
// Every persistent flag falls back to a PATCHCTL_* environment variable.
package main

import (
	"errors"
	"os"
)

// Exit codes.
const (
	ExitSuccess  = 0 // command completed
	ExitMismatch = 1 // the patch does not apply to the record
	ExitError    = 2 // command failed
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := newApp(os.Stdout, os.Stderr)
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errMismatch) {
			return ExitMismatch
		}
		a.log.Error().Err(err).Msg("patchctl failed")
		return ExitError
	}
	return ExitSuccess
}
