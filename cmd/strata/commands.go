package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/cpcf/strata/engine"
	"github.com/cpcf/strata/schema"
	"github.com/cpcf/strata/write"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			for _, name := range eng.Templates() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [template]",
		Short: "Show the resolved structure of a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			root, err := eng.ResolveTemplate(templateArg(args))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fragmentTree(root))
			return nil
		},
	}
}

func fragmentTree(f *schema.Fragment) *tree.Tree {
	t := tree.Root(fragmentLabel(f)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(MutedStyle)
	for _, child := range f.Children {
		if child.IsFolder && len(child.Children) > 0 {
			t.Child(fragmentTree(child))
			continue
		}
		t.Child(fragmentLabel(child))
	}
	return t
}

func fragmentLabel(f *schema.Fragment) string {
	name := f.Name.String()
	if f.Name.Variable {
		name = VariableStyle.Render(name)
	}
	if f.IsFolder {
		name += "/"
	}
	return name + " " + MutedStyle.Render(fmt.Sprintf("%04o", octalMode(f.Mode())))
}

// octalMode renders mode the way chmod takes it, special bits included.
func octalMode(mode fs.FileMode) uint32 {
	octal := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		octal |= 0o4000
	}
	if mode&fs.ModeSetgid != 0 {
		octal |= 0o2000
	}
	if mode&fs.ModeSticky != 0 {
		octal |= 0o1000
	}
	return octal
}

func newPathsCmd(a *app) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "paths [template]",
		Short: "List the paths of a template, materialized when values are given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(sets) == 0 {
				entries, err := eng.Flatten(templateArg(args))
				if err != nil {
					return err
				}
				for _, entry := range entries {
					fmt.Fprintln(out, entry.String())
				}
				return nil
			}

			data, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			plan, err := eng.Plan(templateArg(args), data)
			if err != nil {
				return err
			}
			for _, path := range plan.Paths() {
				fmt.Fprintln(out, path)
			}
			for _, skip := range plan.Skipped {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("skipped"), skip.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Variable value as key=value, repeatable")
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "build [template]",
		Short: "Create the folders and files of a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("root") {
				a.cfg.Output.Root, _ = flags.GetString("root")
			}
			for flag, target := range map[string]*bool{
				"dry-run":       &a.cfg.Output.DryRun,
				"skip-existing": &a.cfg.Output.SkipExisting,
				"manifest":      &a.cfg.Output.Manifest,
				"backup":        &a.cfg.Output.Backup,
				"strict":        &a.cfg.Output.Strict,
			} {
				if flags.Changed(flag) {
					*target, _ = flags.GetBool(flag)
				}
			}

			data, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}

			report, buildErr := eng.Build(a.cfg.Output.Root, templateArg(args), data)
			if report == nil {
				return buildErr
			}
			printReport(cmd, report)
			if buildErr != nil {
				return buildErr
			}
			if report.HasFailures() {
				return errors.New("build finished with failures")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&sets, "set", nil, "Variable value as key=value, repeatable")
	flags.String("root", ".", "Folder the template is built under")
	flags.Bool("dry-run", false, "Report what would be built without writing")
	flags.Bool("skip-existing", false, "Leave existing files untouched")
	flags.Bool("manifest", false, "Record a manifest at the build root")
	flags.Bool("backup", false, "Keep a .bak copy of every file that is overwritten")
	flags.Bool("strict", false, "Fail when any entry is skipped or fails")
	return cmd
}

func printReport(cmd *cobra.Command, report *write.Report) {
	out := cmd.OutOrStdout()
	for _, result := range report.Results {
		switch {
		case result.Status == write.StatusFailed:
			fmt.Fprintln(out, ErrorStyle.Render("failed "), result.Path, MutedStyle.Render(result.Err.Error()))
		case result.Op == write.OpSkip:
			fmt.Fprintln(out, WarningStyle.Render("skipped"), result.Err)
		case result.Op == write.OpMkdir && result.Status == write.StatusCreated,
			result.Op == write.OpWrite && result.Status == write.StatusWritten:
			fmt.Fprintln(out, SuccessStyle.Render("created"), result.Path)
		}
	}
	fmt.Fprintln(out, TitleStyle.Render(report.Summary()))
}

func newParseCmd(a *app) *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "parse <path>",
		Short: "Recover variable values from a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			results, err := eng.Parse(args[0], template)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("%w: %s", engine.ErrNoMatch, args[0])
			}
			for _, result := range results {
				fmt.Fprintln(cmd.OutOrStdout(), result.Canonical())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "Template to match against")
	return cmd
}

func newFindCmd(a *app) *cobra.Command {
	var (
		template string
		filter   schema.Filter
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the first template path matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			entry, ok, err := eng.FindPath(filter, template)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("no path matches")
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry.String())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&template, "template", "t", "", "Template to search")
	flags.StringVar(&filter.StartsWith, "starts-with", "", "First segment")
	flags.StringSliceVar(&filter.Contains, "contains", nil, "Tokens some segment must contain")
	flags.StringVar(&filter.EndsWith, "ends-with", "", "Last segment")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [template]",
		Short: "Check templates for missing references, cycles and naming problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			result := eng.Validate(name, strict)
			out := cmd.OutOrStdout()
			for _, issue := range result.Errors {
				fmt.Fprintln(out, ErrorStyle.Render("error  "), issue)
			}
			for _, issue := range result.Warnings {
				fmt.Fprintln(out, WarningStyle.Render("warning"), issue)
			}
			if !result.Valid {
				return fmt.Errorf("%d template errors", len(result.Errors))
			}
			fmt.Fprintln(out, SuccessStyle.Render("templates are valid"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Also warn about variables without a configured class")
	return cmd
}
