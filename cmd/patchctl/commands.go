package main

import (
	"fmt"

	"github.com/Station-Manager/patch"
	"github.com/Station-Manager/patch/jsonpatch"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func (a *app) diffCmd() *cobra.Command {
	var sealed, unconditional bool
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print the patch turning record OLD into record NEW",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := a.readRecord(args[0])
			if err != nil {
				return err
			}
			next, err := a.readRecord(args[1])
			if err != nil {
				return err
			}
			s := a.schema
			if unconditional {
				if s, err = a.desc.Schema(patch.WithUnconditionalDiff(true)); err != nil {
					return err
				}
			}
			p := s.Diff(old, next)
			a.log.Info().Str("target", p.ObjectID()).Strs("fields", p.Fields()).Msg("diff created")
			if sealed {
				env, err := patch.SealPatch(p)
				if err != nil {
					return err
				}
				return a.writeValue(env)
			}
			raw, err := p.MarshalJSON()
			if err != nil {
				return err
			}
			return a.writeDocument(raw)
		},
	}
	cmd.Flags().BoolVar(&sealed, "envelope", false, "wrap the patch in an envelope")
	cmd.Flags().BoolVar(&unconditional, "all", false, "include unchanged fields")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check PATCH RECORD",
		Short: "Report whether PATCH applies cleanly to RECORD",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.readPatch(args[0])
			if err != nil {
				return err
			}
			r, err := a.readRecord(args[1])
			if err != nil {
				return err
			}
			if err := p.Check(&r); err != nil {
				return a.reportMismatches(err)
			}
			if p.IsApplied(&r) && !p.IsEmpty() {
				a.log.Info().Str("target", p.ObjectID()).Msg("record already reflects the patch")
			}
			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}
}

func (a *app) applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply PATCH RECORD",
		Short: "Apply PATCH to RECORD and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.readPatch(args[0])
			if err != nil {
				return err
			}
			r, err := a.readRecord(args[1])
			if err != nil {
				return err
			}
			if err := p.Apply(&r); err != nil {
				return a.reportMismatches(err)
			}
			a.log.Info().Str("target", p.ObjectID()).Int("fields", p.Count()).Msg("patch applied")
			return a.writeRecord(r)
		},
	}
}

func (a *app) mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge PATCH PATCH...",
		Short: "Merge consecutive patches of one record into a single patch",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := a.readPatch(args[0])
			if err != nil {
				return err
			}
			for _, path := range args[1:] {
				next, err := a.readPatch(path)
				if err != nil {
					return err
				}
				if err := acc.Merge(next); err != nil {
					return fmt.Errorf("merging %s: %w", path, err)
				}
			}
			raw, err := acc.MarshalJSON()
			if err != nil {
				return err
			}
			return a.writeDocument(raw)
		},
	}
}

func (a *app) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup PATCH",
		Short: "Drop the fields of PATCH that change nothing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.readPatch(args[0])
			if err != nil {
				return err
			}
			if p.Cleanup() {
				a.log.Info().Strs("fields", p.Fields()).Msg("no-op fields removed")
			}
			raw, err := p.MarshalJSON()
			if err != nil {
				return err
			}
			return a.writeDocument(raw)
		},
	}
}

func (a *app) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build PARTIAL [BASE]",
		Short: "Build a record from a partial, or apply the partial over record BASE",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.readPartial(args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				r, err := a.readRecord(args[1])
				if err != nil {
					return err
				}
				p.Apply(&r)
				return a.writeRecord(r)
			}
			r, err := p.Build()
			if err != nil {
				a.log.Warn().Strs("missing", p.Missing()).Msg("partial is incomplete")
				return err
			}
			return a.writeRecord(r)
		},
	}
}

func (a *app) jsonPatchCmd() *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "jsonpatch PATCH RECORD",
		Short: "Export PATCH as an RFC 6902 JSON Patch against RECORD",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.readPatch(args[0])
			if err != nil {
				return err
			}
			r, err := a.readRecord(args[1])
			if err != nil {
				return err
			}
			if merge {
				plain, err := a.desc.Plain(r)
				if err != nil {
					return err
				}
				doc, err := json.Marshal(plain)
				if err != nil {
					return err
				}
				out, err := jsonpatch.CreateMergePatch(p, doc)
				if err != nil {
					return err
				}
				return a.writeDocument(out)
			}
			ops, err := jsonpatch.EncodeAgainst(p, &r)
			if err != nil {
				return err
			}
			raw, err := jsonpatch.Marshal(ops)
			if err != nil {
				return err
			}
			return a.writeDocument(raw)
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "print an RFC 7386 merge patch instead")
	return cmd
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the fields of the loaded descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type field struct {
				Name string `json:"name"`
				Role string `json:"role"`
				Kind string `json:"kind"`
				Type string `json:"type"`
			}
			var out []field
			for _, f := range a.schema.Fields() {
				out = append(out, field{Name: f.Name, Role: f.Role.String(), Kind: f.Kind.String(), Type: f.Type.String()})
			}
			return a.writeValue(map[string]any{"name": a.schema.Name(), "fields": out})
		},
	}
}
