package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/hostvalue"
)

func upgradeCmd(flags *globalFlags) *cobra.Command {
	var (
		opts      sessionOptions
		render    bool
		callbacks bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Define a manifest, upgrade the document and print element states",
		Long: `Define every manifest entry, upgrade the whole document and print
the state of every custom element candidate.

Examples:
  elements upgrade
  elements upgrade --callbacks
  elements upgrade --render > upgraded.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd.Context(), flags, opts, render, callbacks)
		},
	}

	cmd.Flags().StringVarP(&opts.document, "document", "d", "", "Document to upgrade (default from elements.json)")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "Manifest to define (default from elements.json)")
	cmd.Flags().BoolVarP(&render, "render", "r", false, "Print the upgraded document as HTML")
	cmd.Flags().BoolVar(&callbacks, "callbacks", false, "Print lifecycle callback invocations")

	return cmd
}

func runUpgrade(ctx context.Context, flags *globalFlags, opts sessionOptions, render, callbacks bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, flags, opts)
	if err != nil {
		return err
	}
	defer s.realm.Close()

	errs := s.apply(ctx)
	s.realm.Upgrade(ctx, s.realm.Document)

	if render {
		if err := dom.Render(os.Stdout, s.realm.Document); err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	failed := printDefinitionErrors(errs)
	s.printReactionErrors()

	counts := make(map[dom.State]int)
	for _, el := range s.realm.Document.Elements() {
		if el.State() == dom.StateUncustomized {
			continue
		}
		counts[el.State()]++
		def := "-"
		if d := el.Definition(); d != nil {
			def = d.Name()
		}
		info("%-14s %-40s %s", el.State(), el.String(), def)
	}

	if callbacks {
		fmt.Println()
		for _, inv := range s.invocations {
			info("%s %s(%s)", inv.Element, inv.Callback, formatArgs(s, inv.Args))
		}
	}

	fmt.Println()
	success("%d custom, %d undefined, %d failed",
		counts[dom.StateCustom], counts[dom.StateUndefined], counts[dom.StateFailed])
	if failed {
		return definitionFailure{count: len(errs)}
	}
	return nil
}

func formatArgs(s *session, args []hostvalue.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = s.realm.Host.Describe(a)
	}
	return strings.Join(parts, ", ")
}
