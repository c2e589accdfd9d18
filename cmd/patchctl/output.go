package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Station-Manager/patch"
	"github.com/Station-Manager/patch/descriptor"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
)

// writeDocument writes an encoded JSON document in the selected output format.
func (a *app) writeDocument(raw []byte) error {
	if a.cfg.Output == "yaml" {
		out, err := yaml.JSONToYAML(raw)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(out)
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := a.stdout.Write(buf.Bytes())
	return err
}

func (a *app) writeValue(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.writeDocument(raw)
}

func (a *app) writeRecord(r descriptor.Record) error {
	plain, err := a.desc.Plain(r)
	if err != nil {
		return err
	}
	return a.writeValue(plain)
}

// colorable reports whether w is a terminal.
func colorable(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// reportMismatches prints every mismatch in err and returns errMismatch, or returns err
// unchanged when it carries none.
func (a *app) reportMismatches(err error) error {
	var mm *patch.MultipleMismatchError
	if !errors.As(err, &mm) {
		return err
	}
	head := color.New(color.FgRed, color.Bold)
	field := color.New(color.FgYellow)
	tty := colorable(a.stdout)
	if !tty {
		head.DisableColor()
		field.DisableColor()
	}
	fmt.Fprintln(a.stdout, head.Sprintf("%d mismatches", mm.Len()))
	for _, m := range mm.Mismatches() {
		fmt.Fprintf(a.stdout, "  %s %s\n", field.Sprint(m.Field), m.Type)
		fmt.Fprintf(a.stdout, "    expected: %s\n    received: %s\n", m.Expected, m.Received)
		if tty && m.Type == patch.PatchOldValueMismatch {
			fmt.Fprintf(a.stdout, "    diff:     %s\n", m.PrettyDiff())
		}
	}
	a.log.Warn().Int("mismatches", mm.Len()).Msg("patch does not apply")
	return errMismatch
}
