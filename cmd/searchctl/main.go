// cmd/searchctl is the CLI entry-point built with Cobra, adapted from
// the teacher's cmd/client/main.go (persistent --server/--timeout
// flags, one subcommand per remote operation, prettyPrint helper) onto
// searchd's HTTP API.
//
// Usage:
//
//	searchctl search "rust programming" --server http://localhost:8080
//	searchctl health --server http://localhost:8080
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"distributed-search/internal/searchhttp"
)

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "searchctl",
		Short: "CLI client for the distributed search front end",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"http://localhost:8080", "searchd server address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second,
		"HTTP request timeout")

	root.AddCommand(searchCmd(), similarHostsCmd(), healthCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func searchCmd() *cobra.Command {
	var page, num int
	var optic string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a search query against searchd",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := searchhttp.New(serverAddr, timeout)
			resp, err := c.Search(context.Background(), args[0], searchhttp.SearchOptions{
				Page: page, Num: num, Optic: optic,
			})
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "result page, 0-indexed")
	cmd.Flags().IntVar(&num, "num", 0, "results per page (0 uses the server default)")
	cmd.Flags().StringVar(&optic, "optic", "", "inline optic program to apply to ranking")
	return cmd
}

func similarHostsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "similar-hosts <host> [host...]",
		Short: "Find hosts whose backlink profile resembles the given seed hosts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := searchhttp.New(serverAddr, timeout)
			resp, err := c.SimilarHosts(context.Background(), args, limit)
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max results returned")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether searchd is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := searchhttp.New(serverAddr, timeout)
			if err := c.Health(context.Background()); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func prettyPrint(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
