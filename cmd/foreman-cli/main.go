// Foreman CLI — инструмент командной строки для управления
// projects, assignments и work plans через HTTP API.
//
// Использование:
//
//	foreman [--api-url URL] [--worker-id ID] [--role ROLE] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	project     Управление projects и каталогом задач
//	assignment  Управление assignments и их жизненным циклом
//	plan        Управление recurring work plans
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Foreman/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var workerID string
	var role string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "foreman",
		Short:         "Foreman CLI — field work coordination tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&workerID, "worker-id", "", "Caller worker ID (X-Worker-ID header)")
	rootCmd.PersistentFlags().StringVar(&role, "role", "supervisor", "Caller role: worker or supervisor")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, workerID, role) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewProjectCmd(clientFn, outputFn),
		cli.NewAssignmentCmd(clientFn, outputFn),
		cli.NewPlanCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
