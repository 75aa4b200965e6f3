package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/elements/internal/errors"
)

func codesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes [code]",
		Short: "List error codes or explain one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if _, ok := errors.Lookup(args[0]); !ok {
					return errors.New("E100").WithDetail("unknown error code " + args[0])
				}
				fmt.Print(errors.New(args[0]).Format())
				return nil
			}
			for _, code := range errors.AllCodes() {
				t, _ := errors.Lookup(code)
				info("%s  %-11s %s", code, t.Category, t.Message)
			}
			return nil
		},
	}
}
