// Command pixctl drives the gateway's session API from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}
	rootCmd := &cobra.Command{
		Use:           "pixctl",
		Short:         "pixctl - PIX gateway command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.api, "api", envOr("PIXCTL_API", "http://localhost:10000"), "Gateway base URL (PIXCTL_API)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PIXCTL_TOKEN"), "Session token (PIXCTL_TOKEN)")

	// Add subcommands
	rootCmd.AddCommand(loginCmd(opts))
	rootCmd.AddCommand(depositCmd(opts))
	rootCmd.AddCommand(withdrawCmd(opts))
	rootCmd.AddCommand(transactionsCmd(opts))
	rootCmd.AddCommand(balanceCmd(opts))

	return rootCmd
}

func loginCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Log in and print a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("PIXCTL_PASSWORD")
			}
			var resp struct {
				Token string `json:"token"`
			}
			body := map[string]string{"email": args[0], "password": password}
			if err := opts.client().do(cmd.Context(), "POST", "/api/auth/login", body, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}
	cmd.Flags().StringP("password", "p", "", "Password (or PIXCTL_PASSWORD)")
	return cmd
}

func depositCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [amount]",
		Short: "Create a PIX charge, amount in reais (e.g. 25.90)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := parseReais(args[0])
			if err != nil {
				return err
			}
			description, _ := cmd.Flags().GetString("description")
			body := map[string]any{"amountCents": cents, "description": description}
			return opts.client().print(cmd, "POST", "/api/transactions/create", body)
		},
	}
	cmd.Flags().StringP("description", "d", "", "Charge description")
	return cmd
}

func withdrawCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [amount] [pix-key]",
		Short: "Pay out to a PIX key, amount in reais",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := parseReais(args[0])
			if err != nil {
				return err
			}
			keyType, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")
			body := map[string]any{
				"amountCents":        cents,
				"destinationKey":     args[1],
				"destinationKeyType": keyType,
				"description":        description,
			}
			return opts.client().print(cmd, "POST", "/api/transactions/withdraw", body)
		},
	}
	cmd.Flags().StringP("type", "t", "random", "Key type (cpf, cnpj, email, phone, random)")
	cmd.Flags().StringP("description", "d", "", "Payout description")
	return cmd
}

func transactionsCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "List the newest transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client().print(cmd, "GET", "/api/transactions", nil)
		},
	}
}

func balanceCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show balance, held funds and daily counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client().print(cmd, "GET", "/api/balance", nil)
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
