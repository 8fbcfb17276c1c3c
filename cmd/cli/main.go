package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	tenant  string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "erpledger-cli",
		Short: "ERP ledger CLI tool",
		Long:  `A command line interface for interacting with the ERP ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", "", "Tenant ID (required for API calls)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that the tenant's debits equal its credits",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile [account-code...]",
		Short: "Reconcile account balances against movement history",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			reconcile(args)
		},
	}

	ledgerCmd.AddCommand(consistencyCmd)
	ledgerCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(ledgerCmd)

	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Journal entry operations",
	}

	entryGetCmd := &cobra.Command{
		Use:   "get [entry-id]",
		Short: "Show a journal entry",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/journal-entries/" + args[0])
		},
	}

	entryCmd.AddCommand(entryGetCmd)

	var entryActor string
	for _, action := range []string{"submit", "approve", "post"} {
		actionCmd := &cobra.Command{
			Use:   action + " [entry-id]",
			Short: strings.ToUpper(action[:1]) + action[1:] + " a journal entry",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				postJSON("/api/v1/journal-entries/"+args[0]+"/"+cmd.Name(),
					map[string]string{"actor": entryActor})
			},
		}
		entryCmd.AddCommand(actionCmd)
	}
	entryCmd.PersistentFlags().StringVar(&entryActor, "actor", "cli", "Name recorded on workflow transitions")
	rootCmd.AddCommand(entryCmd)

	periodCmd := &cobra.Command{
		Use:   "period",
		Short: "Fiscal period operations",
	}

	periodGetCmd := &cobra.Command{
		Use:   "get [year] [month]",
		Short: "Show a fiscal period's status",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/periods/" + args[0] + "/" + args[1])
		},
	}

	periodCmd.AddCommand(periodGetCmd)
	rootCmd.AddCommand(periodCmd)

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	accountGetCmd := &cobra.Command{
		Use:   "get [code]",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0])
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance [code]",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0] + "/balance")
		},
	}

	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(accountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func doGet(path string) ([]byte, int) {
	return doRequest(http.MethodGet, path, nil)
}

func doRequest(method, path string, payload any) ([]byte, int) {
	if tenant == "" {
		fmt.Println("--tenant is required")
		os.Exit(1)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error encoding request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-Tenant-ID", tenant)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	return data, resp.StatusCode
}

func postJSON(path string, payload any) {
	body, status := doRequest(http.MethodPost, path, payload)
	if status < 200 || status >= 300 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return
	}

	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

func getJSON(path string) {
	body, status := doGet(path)
	if status != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return
	}

	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

func checkConsistency() {
	body, status := doGet("/api/v1/ledger/consistency")
	if status != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if consistent, ok := result["consistent"].(bool); ok && consistent {
		fmt.Println("Consistency check PASSED")
		return
	}

	fmt.Println("Consistency check FAILED")
	if detail, ok := result["detail"].(string); ok && detail != "" {
		fmt.Printf("Detail: %s\n", detail)
	}
	os.Exit(1)
}

func reconcile(codes []string) {
	body, status := doGet("/api/v1/ledger/reconciliation?codes=" + strings.Join(codes, ","))
	if status != http.StatusOK {
		fmt.Printf("Reconciliation FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Accounts checked: %v\n", result["total_accounts"])
	fmt.Printf("Reconciled: %v\n", result["reconciled_accounts"])
	fmt.Printf("Ledger consistent: %v\n", result["ledger_consistent"])

	if discrepancies, ok := result["discrepancies"].([]any); ok && len(discrepancies) > 0 {
		fmt.Printf("Discrepancies: %d\n", len(discrepancies))
		for _, d := range discrepancies {
			out, _ := json.MarshalIndent(d, "", "  ")
			fmt.Println(string(out))
		}
		os.Exit(1)
	}
}
