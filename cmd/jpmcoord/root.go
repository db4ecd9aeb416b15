package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	gojpm "github.com/albertocavalcante/go-jpm"
	"github.com/albertocavalcante/go-jpm/internal/config"
	"github.com/albertocavalcante/go-jpm/memstore"
)

// app is the state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "jpmcoord",
		Short:         "Inspect and resolve jpm coordinates",
		Long:          "jpmcoord parses jpm library coordinates, explains revision phases, computes revisions checksums and resolves coordinates against a repository fixture.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .jpmcoord.yaml)")
	flags.String("repo", "", "repository fixture (YAML)")
	flags.String("strategy", "highest", "pick the highest or lowest matching version")
	flags.StringP("output", "o", config.OutputText, "output format: text, yaml or json")
	flags.BoolP("verbose", "v", false, "debug logging on stderr")
	for _, name := range []string{"repo", "strategy", "output", "verbose"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newParseCmd(a),
		newPhasesCmd(a),
		newChecksumCmd(a),
		newResolveCmd(a),
		newInstallCmd(a),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	file, _ := cmd.Flags().GetString("config")
	if err := config.Init(a.v, file); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// openRepo loads the configured repository fixture.
func (a *app) openRepo(ctx context.Context) (*memstore.Store, error) {
	if a.cfg.Repo == "" {
		return nil, errors.New("no repository: pass --repo or set repo in .jpmcoord.yaml")
	}
	store, err := memstore.LoadYAMLFile(ctx, a.cfg.Repo)
	if err != nil {
		return nil, err
	}
	a.log.DebugContext(ctx, "loaded repository", slog.String("path", a.cfg.Repo), slog.Int("revisions", store.Len()))
	return store, nil
}

// resolver builds a resolver over store with every port the store offers.
func (a *app) resolver(store *memstore.Store, extra ...gojpm.Option) (*gojpm.Resolver, error) {
	opts, err := a.cfg.ResolverOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		gojpm.WithLogger(a.log),
		gojpm.WithClosureProvider(store),
		gojpm.WithRevisionSetStore(store),
	)
	return gojpm.NewResolver(store, append(opts, extra...)...)
}

// render writes v as YAML or JSON, or calls text for the text format.
func (a *app) render(v any, text func(w io.Writer) error) error {
	switch a.cfg.Output {
	case config.OutputYAML:
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.OutputJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
	return text(a.stdout)
}
