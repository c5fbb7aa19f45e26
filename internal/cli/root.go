// Package cli implements the xdom command line: querying documents through
// contracts loaded from a spec file, listing value variants, capturing and
// resolving anchors, editing namespace overlays and watching files.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/codec"
	"github.com/reoring/xdom/dsl"
	"github.com/reoring/xdom/overlay"
	"github.com/reoring/xdom/xmltree"
)

type app struct {
	out      io.Writer
	specPath string
	overlays string
	verbose  bool
	logger   *zap.Logger
}

// NewRootCommand builds the xdom command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "xdom",
		Short:         "Inspect XML documents through declarative contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := zap.NewProductionConfig()
			if a.verbose {
				cfg = zap.NewDevelopmentConfig()
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.logger = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetOut(out)
	pf := root.PersistentFlags()
	pf.StringVar(&a.specPath, "spec", "xdom.yaml", "contract spec file (YAML or JSON)")
	pf.StringVar(&a.overlays, "overlays", "", "namespace overlay store applied to the spec's allow-lists")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.queryCommand(),
		a.variantsCommand(),
		a.anchorCommand(),
		a.overlayCommand(),
		a.watchCommand(),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, out io.Writer, args []string) error {
	root := NewRootCommand(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// schema loads the spec and applies stored overlays to its description.
func (a *app) schema() (*dsl.Schema, error) {
	spec, err := dsl.LoadFile(a.specPath)
	if err != nil {
		return nil, err
	}
	r := xdom.NewRegistry(xdom.WithRegistryLogger(a.logger))
	codec.Install(r)
	s, err := dsl.Compile(r, spec)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", a.specPath, err)
	}
	if a.overlays != "" {
		st, err := overlay.Open(a.overlays)
		if err != nil {
			return nil, err
		}
		s.Description.NamespaceOverlays = st.All()
	}
	return s, nil
}

// session is a manager with one document opened through the spec.
type session struct {
	schema *dsl.Schema
	m      *xdom.Manager
	file   *xdom.File
}

func (a *app) open(path string) (*session, error) {
	s, err := a.schema()
	if err != nil {
		return nil, err
	}
	m := xdom.NewManager(xdom.WithDescriptions(s.Description), xdom.WithLogger(a.logger))
	// the absolute path is the document id so anchors survive across runs
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	doc, err := xmltree.ParseFile(abs, xmltree.WithID(abs))
	if err != nil {
		return nil, err
	}
	f, err := m.Open(doc)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &session{schema: s, m: m, file: f}, nil
}
