package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/example/campground/internal/http"
)

func newHashTokenCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-token <token>",
		Short: "Print the bcrypt hash to use as CAMPGROUND_API_TOKEN_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := httptransport.HashToken(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	return cmd
}
