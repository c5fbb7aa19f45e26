package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/xdom"
	"github.com/reoring/xdom/overlay"
	"github.com/reoring/xdom/watch"
	"github.com/reoring/xdom/xmltree"
)

// read runs fn with read access to the document at path.
func (a *app) read(cmd *cobra.Command, path string, fn func(*session, *xdom.ReadAccess) error) error {
	s, err := a.open(path)
	if err != nil {
		return err
	}
	return s.m.Read(cmd.Context(), func(r *xdom.ReadAccess) error { return fn(s, r) })
}

func (a *app) queryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query FILE PATH",
		Short: "Print the value or element at PATH (e.g. /library/book[1]/title)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, args[0], func(s *session, r *xdom.ReadAccess) error {
				t, err := walk(r.Root(s.file), args[1])
				if err != nil {
					return err
				}
				if t.d == nil {
					if name, ok := xdom.NameOf(t.el); ok {
						fmt.Fprintf(a.out, "%s\t%s\n", xdom.PathOf(t.el), name)
						return nil
					}
					if text, ok := t.el.Text(nil); ok && text != "" {
						fmt.Fprintln(a.out, text)
						return nil
					}
					fmt.Fprintln(a.out, xdom.PathOf(t.el))
					return nil
				}
				text, ok := t.text()
				if !ok {
					return fmt.Errorf("%s is not set", args[1])
				}
				fmt.Fprintln(a.out, text)
				conv := t.d.Converter()
				cc := xdom.NewConvertContext(cmd.Context(), t.el)
				if _, ok := conv.FromString(text, cc); !ok && text != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", conv.ErrorMessage(text, cc))
				}
				return nil
			})
		},
	}
}

func (a *app) variantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "variants FILE PATH",
		Short: "List the values currently valid for the value slot at PATH",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, args[0], func(s *session, r *xdom.ReadAccess) error {
				t, err := walk(r.Root(s.file), args[1])
				if err != nil {
					return err
				}
				if t.d == nil || !t.d.Converter().Resolving() {
					return fmt.Errorf("%s does not enumerate variants", args[1])
				}
				conv := t.d.Converter()
				cc := xdom.NewConvertContext(cmd.Context(), t.el)
				vs := conv.Variants(cc)
				if err := cc.Err(); err != nil {
					return err
				}
				for _, v := range vs {
					if el, ok := v.(xdom.Element); ok {
						name, _ := xdom.NameOf(el)
						fmt.Fprintf(a.out, "%s\t%s\n", name, xdom.PathOf(el))
						continue
					}
					if text, ok := conv.ToString(v, cc); ok {
						fmt.Fprintln(a.out, text)
					}
				}
				return nil
			})
		},
	}
}

func (a *app) anchorCommand() *cobra.Command {
	var resolve bool
	cmd := &cobra.Command{
		Use:   "anchor FILE PATH|ANCHOR",
		Short: "Print a JSON anchor for the element at PATH, or resolve one with --resolve",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, args[0], func(s *session, r *xdom.ReadAccess) error {
				if resolve {
					an, err := xdom.ParseAnchor([]byte(args[1]))
					if err != nil {
						return err
					}
					el := r.ResolveAnchor(an)
					if el == nil {
						return errors.New("anchor does not resolve")
					}
					fmt.Fprintln(a.out, xdom.PathOf(el))
					return nil
				}
				t, err := walk(r.Root(s.file), args[1])
				if err != nil {
					return err
				}
				if t.d != nil {
					return fmt.Errorf("%s is a value; anchors address elements", args[1])
				}
				an, err := xdom.NewAnchor(t.el)
				if err != nil {
					return err
				}
				b, err := an.Marshal()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, string(b))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "treat the second argument as an anchor and print its path")
	return cmd
}

func (a *app) overlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Show or edit namespace allow-list overlays (requires --overlays)",
	}
	edit := func(add bool) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			st, baseline, err := a.overlayStore(args[0])
			if err != nil {
				return err
			}
			eff := st.Edit(args[0], baseline, func(s *overlay.Set) {
				for _, ns := range args[1:] {
					if add {
						s.Add(ns)
					} else {
						s.Remove(ns)
					}
				}
			})
			if err := st.Save(); err != nil {
				return err
			}
			a.logger.Info("overlay saved", zap.String("key", args[0]), zap.Strings("effective", eff))
			return a.printOverlay(st, args[0], baseline)
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show KEY",
			Short: "Print the effective allow-list of a namespace key",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				st, baseline, err := a.overlayStore(args[0])
				if err != nil {
					return err
				}
				return a.printOverlay(st, args[0], baseline)
			},
		},
		&cobra.Command{
			Use:   "add KEY NAMESPACE...",
			Short: "Allow namespaces for a key",
			Args:  cobra.MinimumNArgs(2),
			RunE:  edit(true),
		},
		&cobra.Command{
			Use:   "remove KEY NAMESPACE...",
			Short: "Disallow namespaces for a key",
			Args:  cobra.MinimumNArgs(2),
			RunE:  edit(false),
		},
	)
	return cmd
}

func (a *app) overlayStore(key string) (*overlay.Store, []string, error) {
	if a.overlays == "" {
		return nil, nil, errors.New("--overlays is required")
	}
	s, err := a.schema()
	if err != nil {
		return nil, nil, err
	}
	baseline, ok := s.Description.NamespaceKeys[key]
	if !ok {
		return nil, nil, fmt.Errorf("spec declares no namespace key %q", key)
	}
	st, err := overlay.Open(a.overlays)
	if err != nil {
		return nil, nil, err
	}
	return st, baseline, nil
}

// printOverlay lists effective members, marking those the overlay added.
func (a *app) printOverlay(st *overlay.Store, key string, baseline []string) error {
	d := st.Get(key)
	for _, ns := range overlay.Effective(baseline, d) {
		mark := " "
		if !slices.Contains(baseline, ns) {
			mark = "+"
		}
		fmt.Fprintf(a.out, "%s %s\n", mark, ns)
	}
	for _, ns := range d.Removed {
		if slices.Contains(baseline, ns) {
			fmt.Fprintf(a.out, "- %s\n", ns)
		}
	}
	return nil
}

func (a *app) watchCommand() *cobra.Command {
	var debounce = watch.DefaultDebounce
	cmd := &cobra.Command{
		Use:   "watch FILE...",
		Short: "Reload documents when they change and report what was reloaded",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schema()
			if err != nil {
				return err
			}
			counter := &xmltree.Counter{}
			m := xdom.NewManager(
				xdom.WithDescriptions(s.Description),
				xdom.WithTracker(counter),
				xdom.WithLogger(a.logger),
			)
			w, err := watch.New(m,
				watch.WithLogger(a.logger),
				watch.WithCounter(counter),
				watch.WithDebounce(debounce),
				watch.OnReload(func(r watch.Reload) {
					if r.Err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "reload %s: %v\n", r.Path, r.Err)
						return
					}
					fmt.Fprintf(a.out, "reloaded %s\n", r.Path)
				}),
			)
			if err != nil {
				return err
			}
			defer w.Close()
			for _, p := range args {
				if _, err := os.Stat(p); err != nil {
					return err
				}
				if _, err := w.Open(p); err != nil {
					return fmt.Errorf("open %s: %w", p, err)
				}
			}
			err = w.Run(cmd.Context())
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", debounce, "quiet period before reloading")
	return cmd
}
