package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Station-Manager/patch"
	"github.com/Station-Manager/patch/descriptor"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var errMismatch = errors.New("patch does not apply")

type config struct {
	SchemaPath string
	LogLevel   string
	LogJSON    bool
	Output     string
}

// configFromEnv returns the defaults the flags start from.
func configFromEnv() config {
	c := config{
		SchemaPath: os.Getenv("PATCHCTL_SCHEMA"),
		LogLevel:   envOr("PATCHCTL_LOG_LEVEL", "info"),
		Output:     envOr("PATCHCTL_OUTPUT", "json"),
	}
	if v, err := strconv.ParseBool(os.Getenv("PATCHCTL_LOG_JSON")); err == nil {
		c.LogJSON = v
	}
	return c
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

type app struct {
	cfg    config
	stdout io.Writer
	stderr io.Writer
	log    zerolog.Logger

	desc   *descriptor.RecordDescriptor
	schema *patch.Schema[descriptor.Record]
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		cfg:    configFromEnv(),
		stdout: stdout,
		stderr: stderr,
		log:    zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger(),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "patchctl",
		Short:         "Diff, check and apply record patches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.cfg.SchemaPath, "schema", a.cfg.SchemaPath, "record descriptor file (PATCHCTL_SCHEMA)")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (PATCHCTL_LOG_LEVEL)")
	f.BoolVar(&a.cfg.LogJSON, "log-json", a.cfg.LogJSON, "log as JSON lines (PATCHCTL_LOG_JSON)")
	f.StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "output format, json or yaml (PATCHCTL_OUTPUT)")

	root.AddCommand(
		a.diffCmd(),
		a.checkCmd(),
		a.applyCmd(),
		a.mergeCmd(),
		a.cleanupCmd(),
		a.buildCmd(),
		a.jsonPatchCmd(),
		a.describeCmd(),
	)
	return root
}

func (a *app) setup() error {
	level, err := zerolog.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	var w io.Writer = zerolog.ConsoleWriter{Out: a.stderr}
	if a.cfg.LogJSON {
		w = a.stderr
	}
	a.log = zerolog.New(w).Level(level).With().Timestamp().Logger()

	switch a.cfg.Output {
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", a.cfg.Output)
	}
	if a.cfg.SchemaPath == "" {
		return errors.New("no descriptor given, use --schema or PATCHCTL_SCHEMA")
	}
	a.desc, err = descriptor.LoadFile(a.cfg.SchemaPath)
	if err != nil {
		return err
	}
	a.schema, err = a.desc.Schema()
	if err != nil {
		return err
	}
	a.log.Debug().Str("schema", a.desc.Name).Int("fields", len(a.desc.Fields)).Msg("descriptor loaded")
	return nil
}

func (a *app) readRecord(path string) (descriptor.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := a.desc.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", path, err)
	}
	return r, nil
}

// readJSON reads a JSON or YAML file as JSON.
func readJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return out, nil
}

// envelope reports whether data is a sealed document rather than a bare patch or partial.
func envelope(data []byte) (*patch.Envelope, bool) {
	var env patch.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Kind == "" || env.Payload == nil {
		return nil, false
	}
	return &env, true
}

func (a *app) readPatch(path string) (*patch.Patch[descriptor.Record], error) {
	data, err := readJSON(path)
	if err != nil {
		return nil, err
	}
	var p *patch.Patch[descriptor.Record]
	if env, ok := envelope(data); ok {
		p, err = patch.OpenPatch(a.schema, env)
	} else {
		p, err = a.schema.DecodePatch(data)
	}
	if err != nil {
		return nil, fmt.Errorf("reading patch %s: %w", path, err)
	}
	a.log.Debug().Str("file", path).Str("target", p.ObjectID()).Strs("fields", p.Fields()).Msg("patch loaded")
	return p, nil
}

func (a *app) readPartial(path string) (*patch.Partial[descriptor.Record], error) {
	data, err := readJSON(path)
	if err != nil {
		return nil, err
	}
	var p *patch.Partial[descriptor.Record]
	if env, ok := envelope(data); ok {
		p, err = patch.OpenPartial(a.schema, env)
	} else {
		p, err = a.schema.DecodePartial(data)
	}
	if err != nil {
		return nil, fmt.Errorf("reading partial %s: %w", path, err)
	}
	return p, nil
}
