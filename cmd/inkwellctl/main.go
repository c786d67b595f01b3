package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "inkwellctl",
		Short: "CLI client for the Inkwell journal REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Inkwell service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", os.Getenv("INKWELL_TOKEN"), "Bearer token (defaults to INKWELL_TOKEN)")

	registerCmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient(apiFlag, "").register(os.Stdout, args[0], args[1])
		},
	}

	loginCmd := &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Obtain an access token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient(apiFlag, "").login(os.Stdout, args[0], args[1])
		},
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a journal entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			body, _ := cmd.Flags().GetString("body")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			return newClient(apiFlag, tokenFlag).createEntry(os.Stdout, title, body, tags)
		},
	}
	createCmd.Flags().String("title", "", "Entry title (required)")
	createCmd.Flags().String("body", "", "Entry body (required)")
	createCmd.Flags().StringSlice("tags", nil, "Comma-separated tags")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("body")

	getCmd := &cobra.Command{
		Use:   "get <entry-id>",
		Short: "Fetch one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient(apiFlag, tokenFlag).getEntry(os.Stdout, args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			skip, _ := cmd.Flags().GetInt("skip")
			limit, _ := cmd.Flags().GetInt("limit")
			return newClient(apiFlag, tokenFlag).listEntries(os.Stdout, skip, limit)
		},
	}
	listCmd.Flags().Int("skip", 0, "Entries to skip")
	listCmd.Flags().Int("limit", 100, "Maximum entries to return")

	deleteCmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient(apiFlag, tokenFlag).deleteEntry(os.Stdout, args[0])
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Semantic search over your entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			topk, _ := cmd.Flags().GetInt("topk")
			return newClient(apiFlag, tokenFlag).search(os.Stdout, query, topk)
		},
	}
	searchCmd.Flags().StringP("query", "q", "", "Search query text (required)")
	searchCmd.Flags().IntP("topk", "k", 5, "Number of top results to return")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(registerCmd, loginCmd, createCmd, getCmd, listCmd, deleteCmd, searchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
