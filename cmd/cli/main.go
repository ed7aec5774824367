package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iho/fundstransfer/internal/adapter/http/dto"
	"github.com/iho/fundstransfer/internal/adapter/http/middleware"
)

// newOperationID is swapped in tests.
var newOperationID = func() string { return uuid.NewString() }

type apiClient struct {
	baseURL string
	http    *http.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	client := &apiClient{}

	rootCmd := &cobra.Command{
		Use:           "fundstransfer-cli",
		Short:         "Funds transfer CLI tool",
		Long:          `A command line interface for interacting with the funds transfer API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			client.baseURL = strings.TrimRight(baseURL, "/")
			client.http = &http.Client{Timeout: timeout}
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the funds transfer API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd(client), transferCmd(client))

	return rootCmd
}

func accountCmd(client *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account funds operations",
	}

	var req dto.CreateAccountFundsRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account with an initial balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountFundsResponse
			if err := client.do(cmd.Context(), http.MethodPost, "/api/v1/account-funds/", "", &req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	createCmd.Flags().StringVar(&req.AccountID, "id", "", "Account ID (generated when empty)")
	createCmd.Flags().StringVar(&req.Balance, "balance", "0.00", "Initial balance")
	createCmd.Flags().StringVar(&req.Currency, "currency", "", "ISO 4217 currency code")
	_ = createCmd.MarkFlagRequired("currency")

	getCmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountFundsResponse
			if err := client.do(cmd.Context(), http.MethodGet, "/api/v1/account-funds/"+url.PathEscape(args[0]), "", nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.AddCommand(createCmd, getCmd)
	return cmd
}

func transferCmd(client *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer operations",
	}

	var (
		req            dto.CreateTransferRequest
		idempotencyKey string
	)
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a transfer between two accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.OperationID == "" {
				req.OperationID = newOperationID()
			}

			var resp dto.TransferResponse
			if err := client.do(cmd.Context(), http.MethodPost, "/api/v1/transfers/", idempotencyKey, &req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	submitCmd.Flags().StringVar(&req.OperationID, "operation-id", "", "Operation ID (a new UUID when empty)")
	submitCmd.Flags().StringVar(&req.Accounts.From.ID, "from", "", "Sender account ID")
	submitCmd.Flags().StringVar(&req.Accounts.To.ID, "to", "", "Recipient account ID")
	submitCmd.Flags().StringVar(&req.Amount.Value, "amount", "", "Amount with two decimal places")
	submitCmd.Flags().StringVar(&req.Amount.Currency, "currency", "", "ISO 4217 currency code")
	submitCmd.Flags().StringVar(&req.Message, "message", "", "Optional message")
	submitCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header")
	for _, name := range []string{"from", "to", "amount", "currency"} {
		_ = submitCmd.MarkFlagRequired(name)
	}

	var operationID string
	getCmd := &cobra.Command{
		Use:   "get [transfer-number]",
		Short: "Show a transfer by number or operation ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			switch {
			case operationID != "":
				path = "/api/v1/transfers/operations/" + url.PathEscape(operationID)
			case len(args) == 1:
				path = "/api/v1/transfers/" + url.PathEscape(args[0])
			default:
				return fmt.Errorf("either a transfer number or --operation-id is required")
			}

			var resp dto.TransferResponse
			if err := client.do(cmd.Context(), http.MethodGet, path, "", nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	getCmd.Flags().StringVar(&operationID, "operation-id", "", "Look up by operation ID")

	cmd.AddCommand(submitCmd, getCmd)
	return cmd
}

// do sends body as JSON and decodes a 2xx response into out.
func (c *apiClient) do(ctx context.Context, method, path, idempotencyKey string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("request failed (status %d): %s: %s", resp.StatusCode, apiErr.Error, apiErr.Message)
			}
			return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
