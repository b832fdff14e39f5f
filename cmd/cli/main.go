package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/adapter/http/middleware"
)

// errInconsistent makes the process exit non-zero without repeating the report.
var errInconsistent = errors.New("ledger is inconsistent")

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type apiClient struct {
	baseURL string
	userID  string
	role    string
	timeout time.Duration
}

// do sends a request and decodes the JSON body into out. Non-2xx statuses
// listed in accept are decoded too; any other status is an error.
func (c *apiClient) do(ctx context.Context, method, path string, out any, accept ...int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	if c.userID != "" {
		req.Header.Set(middleware.UserIDHeader, c.userID)
		req.Header.Set(middleware.UserRoleHeader, c.role)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	for _, code := range accept {
		ok = ok || resp.StatusCode == code
	}
	if !ok {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return resp.StatusCode, fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
		}
		return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	client := &apiClient{}

	rootCmd := &cobra.Command{
		Use:           "stockroyale-cli",
		Short:         "StockRoyale CLI tool",
		Long:          `A command line interface for operating the StockRoyale engine over its HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&client.baseURL, "url", "http://localhost:8080", "Base URL of the StockRoyale API")
	rootCmd.PersistentFlags().DurationVar(&client.timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&client.userID, "user-id", "operator", "Account ID sent as the caller identity")
	rootCmd.PersistentFlags().StringVar(&client.role, "role", "admin", "Role sent with the caller identity")

	rootCmd.AddCommand(ledgerCmd(client), roundCmd(client), pricesCmd(client), stocksCmd(client))

	return rootCmd
}

func ledgerCmd(client *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ConsistencyResponse
			if _, err := client.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", &report, http.StatusConflict); err != nil {
				return err
			}

			if report.Consistent {
				fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Consistency check FAILED")
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}

			if !report.Consistent {
				return errInconsistent
			}
			return nil
		},
	})

	return cmd
}

func roundCmd(client *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Bankruptcy rounds",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Bankrupt the weakest stock and top up public offerings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var round dto.RoundResponse
			if _, err := client.do(cmd.Context(), http.MethodPost, "/api/v1/admin/round", &round); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), round)
		},
	})

	return cmd
}

func pricesCmd(client *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Average price maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "recompute [stock-id]",
		Short: "Recompute average prices of one or all active stocks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var price dto.PriceResponse
				if _, err := client.do(cmd.Context(), http.MethodPost, "/api/v1/admin/prices/"+args[0]+"/recompute", &price); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), price)
			}

			var result dto.RecomputeResponse
			status, err := client.do(cmd.Context(), http.MethodPost, "/api/v1/admin/prices/recompute", &result, http.StatusMultiStatus)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if status == http.StatusMultiStatus {
				return fmt.Errorf("%d stocks failed to recompute", len(result.Failed))
			}
			return nil
		},
	})

	return cmd
}

func stocksCmd(client *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "Stock queries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "scores",
		Short: "Show the current evaluation of every active stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			var scores []dto.ScoreResponse
			if _, err := client.do(cmd.Context(), http.MethodGet, "/api/v1/admin/scores", &scores); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TICKER\tMARKET CAP\tFLOAT\tVOLATILITY\tFUN\tSCORE")
			for _, s := range scores {
				fmt.Fprintf(w, "%s\t%.2f\t%.0f\t%.4f\t%.4f\t%.4f\n",
					truncate(s.Ticker, 12), s.MarketCap, s.PublicFloat, s.Volatility, s.Fun, s.Score)
			}
			return w.Flush()
		},
	})

	return cmd
}

func printJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
