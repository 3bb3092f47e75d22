package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/campground/internal/application"
)

func newPromoteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Run one waiting list promotion pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.PromotionTimeout)
			defer cancel()

			report, err := a.waitlist.PromoteAll(ctx)
			printPromotionReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}

func printPromotionReport(w io.Writer, report application.PromotionReport) {
	fmt.Fprintf(w, "promoted: %d\n", len(report.Promoted))
	for i, id := range report.Promoted {
		reservation := ""
		if i < len(report.Reservations) {
			reservation = report.Reservations[i]
		}
		fmt.Fprintf(w, "  %s -> reservation %s\n", id, reservation)
	}
	fmt.Fprintf(w, "unsatisfiable: %d\n", len(report.Unsatisfiable))
	for _, id := range report.Unsatisfiable {
		fmt.Fprintf(w, "  %s\n", id)
	}
	fmt.Fprintf(w, "conflicted: %d\n", len(report.Conflicted))
	for _, id := range report.Conflicted {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
