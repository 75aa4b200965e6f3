package main

import (
	"context"

	"github.com/spf13/cobra"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	var opts sessionOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Define a manifest and report rejected definitions",
		Long: `Define every manifest entry against the document and report the
definitions the registry rejected, with the manifest location that
caused each error.

Upgrade and callback failures are printed as warnings; they do not
fail the check.

Examples:
  elements check
  elements check --manifest s3://assets/elements.yaml
  elements check --json-errors`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), flags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.document, "document", "d", "", "Document to define against (default from elements.json)")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "Manifest to check (default from elements.json)")

	return cmd
}

func runCheck(ctx context.Context, flags *globalFlags, opts sessionOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, flags, opts)
	if err != nil {
		return err
	}
	defer s.realm.Close()

	errs := s.apply(ctx)
	s.printReactionErrors()
	if printDefinitionErrors(errs) {
		errorMsg("%d of %d definitions failed", len(errs), len(s.manifest.Entries))
		return definitionFailure{count: len(errs)}
	}
	success("%d definitions OK", len(s.manifest.Entries))
	return nil
}
