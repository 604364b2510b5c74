package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewPlanCmd создаёт группу команд для управления work plans.
func NewPlanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage recurring work plans",
	}

	cmd.AddCommand(
		newPlanListCmd(clientFn, outputFn),
		newPlanCreateCmd(clientFn, outputFn),
		newPlanShowCmd(clientFn, outputFn),
		newPlanDeleteCmd(clientFn, outputFn),
		newPlanEnableCmd(clientFn, outputFn),
		newPlanDisableCmd(clientFn, outputFn),
	)

	return cmd
}

func newPlanListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var projectID string
	var workerID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			plans, err := client.ListPlans(ListPlansOpts{
				ProjectID: projectID,
				WorkerID:  workerID,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "WORKER_ID", "CRON", "INTERVAL", "ENABLED", "NEXT_DUE"}
			rows := make([][]string, len(plans))
			for i, p := range plans {
				rows[i] = []string{
					p.ID, p.Name, p.WorkerID, p.CronExpr, formatInterval(p.IntervalSec),
					strconv.FormatBool(p.Enabled), p.NextDueAt,
				}
			}

			out.Print(headers, rows, plans)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "Filter by project ID")
	cmd.Flags().StringVar(&workerID, "worker-id", "", "Filter by worker ID")

	return cmd
}

func newPlanCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var projectID string
	var workerID string
	var name string
	var taskIDs string
	var priority string
	var estimatedMinutes int
	var cronExpr string
	var intervalSec int
	var timezone string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a recurring work plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			plan, err := client.CreatePlan(CreatePlanRequest{
				ProjectID:        projectID,
				WorkerID:         workerID,
				Name:             name,
				TaskIDs:          strings.Split(taskIDs, ","),
				Priority:         priority,
				EstimatedMinutes: estimatedMinutes,
				CronExpr:         cronExpr,
				IntervalSec:      intervalSec,
				Timezone:         timezone,
				Enabled:          true,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Work plan created: %s", plan.ID))
			out.Print(
				[]string{"ID", "NAME", "WORKER_ID", "CRON", "INTERVAL", "ENABLED", "NEXT_DUE"},
				[][]string{{
					plan.ID, plan.Name, plan.WorkerID, plan.CronExpr,
					formatInterval(plan.IntervalSec), strconv.FormatBool(plan.Enabled), plan.NextDueAt,
				}},
				plan,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "Project ID (required)")
	cmd.Flags().StringVar(&workerID, "worker-id", "", "Worker ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "Plan name")
	cmd.Flags().StringVar(&taskIDs, "tasks", "", "Comma-separated task IDs in execution order (required)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (low|medium|high|critical)")
	cmd.Flags().IntVar(&estimatedMinutes, "estimated-minutes", 0, "Estimated minutes per task")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (e.g. '0 6 * * 1-5')")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "Interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone (e.g. 'Europe/Moscow')")
	cmd.MarkFlagRequired("project-id")
	cmd.MarkFlagRequired("worker-id")
	cmd.MarkFlagRequired("tasks")

	return cmd
}

func newPlanShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show work plan details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			plan, err := client.GetPlan(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "WORKER_ID", "TASKS", "CRON", "INTERVAL", "TIMEZONE", "ENABLED", "NEXT_DUE"},
				[][]string{{
					plan.ID, plan.Name, plan.WorkerID, strconv.Itoa(len(plan.TaskIDs)),
					plan.CronExpr, formatInterval(plan.IntervalSec), plan.Timezone,
					strconv.FormatBool(plan.Enabled), plan.NextDueAt,
				}},
				plan,
			)
			return nil
		},
	}
}

func newPlanDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a work plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeletePlan(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Work plan deleted: %s", args[0]))
			return nil
		},
	}
}

func newPlanEnableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enable ID",
		Short: "Enable a work plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.SetPlanEnabled(args[0], true); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Work plan enabled: %s", args[0]))
			return nil
		},
	}
}

func newPlanDisableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "disable ID",
		Short: "Disable a work plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.SetPlanEnabled(args[0], false); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Work plan disabled: %s", args[0]))
			return nil
		},
	}
}

func formatInterval(sec int) string {
	if sec <= 0 {
		return ""
	}
	return strconv.Itoa(sec) + "s"
}
