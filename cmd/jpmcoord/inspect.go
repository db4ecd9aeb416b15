package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/phase"
	"github.com/albertocavalcante/go-jpm/revisions"
)

type coordinateView struct {
	Coordinate string   `json:"coordinate" yaml:"coordinate"`
	Group      string   `json:"group" yaml:"group"`
	GroupID    string   `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	ArtifactID string   `json:"artifactId" yaml:"artifactId"`
	Classifier string   `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Version    string   `json:"version,omitempty" yaml:"version,omitempty"`
	Baseline   string   `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Qualifier  string   `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Modifier   string   `json:"modifier" yaml:"modifier"`
	Exact      bool     `json:"exact" yaml:"exact"`
	Phases     []string `json:"phases" yaml:"phases"`
}

func viewCoordinate(c coordinate.Coordinate) coordinateView {
	v := coordinateView{
		Coordinate: c.String(),
		Group:      c.Group().String(),
		GroupID:    c.GroupID(),
		ArtifactID: c.ArtifactID(),
		Classifier: c.Classifier(),
		Version:    c.Version(),
		Baseline:   c.Baseline(),
		Qualifier:  c.Qualifier(),
		Modifier:   string(c.Modifier()),
		Exact:      c.IsExact(),
	}
	for _, p := range c.Phases().Phases() {
		v.Phases = append(v.Phases, p.String())
	}
	return v
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <coordinate>...",
		Short: "Parse coordinates and show their parts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make([]coordinateView, 0, len(args))
			for _, arg := range args {
				c, err := coordinate.Parse(arg)
				if err != nil {
					return err
				}
				views = append(views, viewCoordinate(c))
			}
			return a.render(views, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for i, v := range views {
					if i > 0 {
						fmt.Fprintln(tw)
					}
					fmt.Fprintf(tw, "coordinate\t%s\n", v.Coordinate)
					fmt.Fprintf(tw, "group\t%s\n", v.Group)
					fmt.Fprintf(tw, "groupId\t%s\n", v.GroupID)
					fmt.Fprintf(tw, "artifactId\t%s\n", v.ArtifactID)
					fmt.Fprintf(tw, "classifier\t%s\n", v.Classifier)
					fmt.Fprintf(tw, "version\t%s\n", v.Version)
					fmt.Fprintf(tw, "baseline\t%s\n", v.Baseline)
					fmt.Fprintf(tw, "qualifier\t%s\n", v.Qualifier)
					fmt.Fprintf(tw, "modifier\t%s\n", v.Modifier)
					fmt.Fprintf(tw, "exact\t%t\n", v.Exact)
					fmt.Fprintf(tw, "phases\t%s\n", strings.Join(v.Phases, ","))
				}
				return tw.Flush()
			})
		},
	}
}

type phaseView struct {
	Name      string `json:"name" yaml:"name"`
	Symbol    string `json:"symbol" yaml:"symbol"`
	Locked    bool   `json:"locked" yaml:"locked"`
	Listable  bool   `json:"listable" yaml:"listable"`
	Permanent bool   `json:"permanent" yaml:"permanent"`
	Staging   bool   `json:"staging" yaml:"staging"`
}

func newPhasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "phases",
		Short: "List revision phases and their properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var views []phaseView
			for _, p := range phase.Values() {
				views = append(views, phaseView{
					Name:      p.String(),
					Symbol:    p.Symbol(),
					Locked:    p.IsLocked(),
					Listable:  p.IsListable(),
					Permanent: p.IsPermanent(),
					Staging:   p.IsStaging(),
				})
			}
			return a.render(views, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PHASE\tSYMBOL\tLOCKED\tLISTABLE\tPERMANENT\tSTAGING")
				for _, v := range views {
					fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%t\t%t\n", v.Name, v.Symbol, v.Locked, v.Listable, v.Permanent, v.Staging)
				}
				return tw.Flush()
			})
		},
	}
}

func newChecksumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checksum <hex-id>...",
		Short: "Compute the revisions checksum of a set of revision ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]library.Digest, 0, len(args))
			for _, arg := range args {
				id, err := library.ParseDigest(arg)
				if err != nil {
					return err
				}
				if !id.IsSHA1() {
					return fmt.Errorf("%s is not a SHA-1 revision id", arg)
				}
				ids = append(ids, id)
			}
			set, err := revisions.New(ids...)
			if err != nil {
				return err
			}
			return a.render(set, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, set.ID)
				return err
			})
		},
	}
}
