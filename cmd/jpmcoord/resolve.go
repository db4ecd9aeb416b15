package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	gojpm "github.com/albertocavalcante/go-jpm"
	"github.com/albertocavalcante/go-jpm/codec"
	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/lockfile"
	"github.com/albertocavalcante/go-jpm/manifest"
)

type resolveView struct {
	Coordinate string               `json:"coordinate" yaml:"coordinate"`
	Revision   *library.RevisionRef `json:"revision" yaml:"revision"`
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		closure   bool
		optionals bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <coordinate>...",
		Short: "Resolve coordinates against the repository",
		Long:  "Resolve prints the revision each coordinate picks. With --closure it prints the install set of one coordinate and its dependencies.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			r, err := a.resolver(store)
			if err != nil {
				return err
			}

			if closure {
				if len(args) != 1 {
					return fmt.Errorf("--closure takes exactly one coordinate, got %d", len(args))
				}
				c, err := coordinate.Parse(args[0])
				if err != nil {
					return err
				}
				set, err := r.ResolveClosure(ctx, c, optionals)
				if err != nil {
					return err
				}
				return a.renderInstallSet(set)
			}

			var (
				views      []resolveView
				unresolved []string
			)
			for _, arg := range args {
				rev, err := r.ResolveString(ctx, arg)
				if err != nil {
					return err
				}
				view := resolveView{Coordinate: arg}
				if rev == nil {
					unresolved = append(unresolved, arg)
				} else {
					ref := library.NewRevisionRef(rev)
					view.Revision = &ref
				}
				views = append(views, view)
			}
			if err := a.render(views, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, v := range views {
					if v.Revision == nil {
						fmt.Fprintf(tw, "%s\t-\n", v.Coordinate)
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Coordinate, v.Revision.Revision, v.Revision.VersionString(), v.Revision.Phase)
				}
				return tw.Flush()
			}); err != nil {
				return err
			}
			if len(unresolved) > 0 {
				return &gojpm.UnresolvedError{Coordinates: unresolved}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&closure, "closure", false, "include the dependency closure")
	cmd.Flags().BoolVar(&optionals, "optionals", false, "with --closure, include optional dependencies")
	return cmd
}

func newInstallCmd(a *app) *cobra.Command {
	var (
		manifestPath string
		lockPath     string
		check        bool
		setOut       string
	)
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Resolve a manifest into an install set",
		Long: `Install resolves every artifact of a manifest (JPM.bazel, *.toml or *.yaml).
With --lock the result is written to a lockfile; with --check an existing
lockfile is compared instead and any difference is an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if manifestPath == "" {
				return fmt.Errorf("--manifest is required")
			}
			store, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			r, err := a.resolver(store)
			if err != nil {
				return err
			}
			m, err := manifest.ParseFile(manifestPath)
			if err != nil {
				return err
			}
			set, err := r.Install(ctx, m)
			if err != nil {
				return err
			}
			if _, err := r.Persist(ctx, set); err != nil {
				return err
			}

			if lockPath != "" {
				lf, err := lockfile.FromInstallSet(set)
				if err != nil {
					return err
				}
				if check {
					existing, err := lockfile.ReadFile(lockPath)
					if err != nil {
						return err
					}
					if d := lockfile.Compare(existing, lf); !d.IsEmpty() {
						return fmt.Errorf("%s is out of date:\n%s", lockPath, d.Summary())
					}
				} else if err := lf.WriteFile(lockPath); err != nil {
					return err
				}
			}

			if setOut != "" {
				data, err := codec.EncodeSet(set.Set)
				if err != nil {
					return err
				}
				if err := os.WriteFile(setOut, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", setOut, err)
				}
			}
			return a.renderInstallSet(set)
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "manifest file")
	cmd.Flags().StringVar(&lockPath, "lock", "", "lockfile to write")
	cmd.Flags().BoolVar(&check, "check", false, "compare with the lockfile instead of writing it")
	cmd.Flags().StringVar(&setOut, "set-out", "", "write the revisions set as CBOR")
	return cmd
}

func (a *app) renderInstallSet(set *gojpm.InstallSet) error {
	return a.render(set, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "set\t%s\t%d revisions\n", set.Set.ID, set.Set.Len())
		for _, e := range set.Entries {
			mark := ""
			switch {
			case e.Closure:
				mark = "closure"
			case e.Optional:
				mark = "optional"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Coordinate, e.Revision.Revision, e.Revision.VersionString(), e.Revision.Phase, mark)
		}
		for _, s := range set.Skipped {
			fmt.Fprintf(tw, "%s\t-\t\t\tskipped\n", s)
		}
		return tw.Flush()
	})
}
