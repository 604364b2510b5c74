package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewAssignmentCmd создаёт группу команд для управления assignments.
func NewAssignmentCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignment",
		Short: "Manage task assignments",
	}

	cmd.AddCommand(
		newAssignmentListCmd(clientFn, outputFn),
		newAssignmentAssignCmd(clientFn, outputFn),
		newAssignmentShowCmd(clientFn, outputFn),
		newAssignmentStartCmd(clientFn, outputFn),
		newAssignmentProgressCmd(clientFn, outputFn),
		newAssignmentCompleteCmd(clientFn, outputFn),
		newAssignmentRemoveCmd(clientFn, outputFn),
		newAssignmentIssueCmd(clientFn, outputFn),
		newAssignmentPhotoCmd(clientFn, outputFn),
	)

	return cmd
}

func assignmentRow(a AssignmentResponse) []string {
	return []string{
		a.ID, a.TaskID, a.Date, strconv.Itoa(a.Sequence), a.Status, a.Priority,
		fmt.Sprintf("%.0f%%", a.ProgressPercent),
	}
}

var assignmentHeaders = []string{"ID", "TASK_ID", "DATE", "SEQ", "STATUS", "PRIORITY", "PROGRESS"}

func newAssignmentListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workerID string
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a worker's assignments for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			assignments, err := client.ListWorkerAssignments(workerID, date)
			if err != nil {
				return err
			}

			rows := make([][]string, len(assignments))
			for i, a := range assignments {
				rows[i] = assignmentRow(a)
			}

			out.Print(assignmentHeaders, rows, assignments)
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker-id", "", "Worker ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default: today)")
	cmd.MarkFlagRequired("worker-id")

	return cmd
}

func newAssignmentAssignCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workerID string
	var projectID string
	var date string
	var priority string
	var estimatedMinutes int
	var tasks []string

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign tasks to a worker for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := AssignTasksRequest{
				WorkerID:         workerID,
				ProjectID:        projectID,
				Date:             date,
				Priority:         priority,
				EstimatedMinutes: estimatedMinutes,
			}

			// Формат задачи: TASK_ID или TASK_ID:DEP_ID,DEP_ID
			for _, t := range tasks {
				parts := strings.SplitN(t, ":", 2)
				spec := TaskSpecRequest{TaskID: parts[0]}
				if len(parts) == 2 && parts[1] != "" {
					spec.DependsOn = strings.Split(parts[1], ",")
				}
				req.Tasks = append(req.Tasks, spec)
			}

			result, err := client.AssignTasks(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Assignments created: %d", result.Created))
			if out.jsonMode {
				out.JSON(result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker-id", "", "Worker ID (required)")
	cmd.Flags().StringVar(&projectID, "project-id", "", "Project ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (low|medium|high|critical)")
	cmd.Flags().IntVar(&estimatedMinutes, "estimated-minutes", 0, "Estimated minutes per task")
	cmd.Flags().StringSliceVar(&tasks, "task", nil, "Task as TASK_ID or TASK_ID:DEP_ID,DEP_ID (repeatable)")
	cmd.MarkFlagRequired("worker-id")
	cmd.MarkFlagRequired("project-id")
	cmd.MarkFlagRequired("task")

	return cmd
}

func newAssignmentShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show assignment details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			a, err := client.GetAssignment(args[0])
			if err != nil {
				return err
			}

			out.Print(assignmentHeaders, [][]string{assignmentRow(*a)}, a)
			return nil
		},
	}
}

func newAssignmentStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var lat, lng, accuracy float64

	cmd := &cobra.Command{
		Use:   "start ID",
		Short: "Start an assignment (requires on-site location)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			a, err := client.StartAssignment(args[0], StartRequest{
				Latitude:       lat,
				Longitude:      lng,
				AccuracyMeters: accuracy,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Assignment started: %s", a.ID))
			out.Print(assignmentHeaders, [][]string{assignmentRow(*a)}, a)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Current latitude (required)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Current longitude (required)")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "GPS accuracy in meters")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")

	return cmd
}

func newAssignmentProgressCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var percent float64
	var description string

	cmd := &cobra.Command{
		Use:   "progress ID",
		Short: "Submit progress for an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.SubmitProgress(args[0], ProgressRequest{
				Percent:     percent,
				Description: description,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Progress: %.0f%% -> %.0f%% (%s)",
				result.PreviousPercent, result.NewPercent, result.Status))
			if out.jsonMode {
				out.JSON(result)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&percent, "percent", 0, "Progress percent 0-100 (required)")
	cmd.Flags().StringVar(&description, "description", "", "Work description (required)")
	cmd.MarkFlagRequired("percent")
	cmd.MarkFlagRequired("description")

	return cmd
}

func newAssignmentCompleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Complete an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			a, err := client.CompleteAssignment(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Assignment completed: %s", a.ID))
			out.Print(assignmentHeaders, [][]string{assignmentRow(*a)}, a)
			return nil
		},
	}
}

func newAssignmentRemoveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a queued assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.RemoveAssignment(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Assignment removed: %s", args[0]))
			return nil
		},
	}
}

func newAssignmentIssueCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var issueType string
	var priority string
	var description string

	cmd := &cobra.Command{
		Use:   "issue ID",
		Short: "Report an issue on an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			issue, err := client.ReportIssue(args[0], ReportIssueRequest{
				Type:        issueType,
				Priority:    priority,
				Description: description,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Issue reported: %s", issue.ID))
			if out.jsonMode {
				out.JSON(issue)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&issueType, "type", "", "Issue type (material|equipment|safety|weather|other)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (low|medium|high|critical)")
	cmd.Flags().StringVar(&description, "description", "", "Issue description (required)")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("description")

	return cmd
}

func newAssignmentPhotoCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "photo ID",
		Short: "Attach a photo to an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			a, err := client.AttachPhoto(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Photo attached, total: %d", a.PhotoCount))
			return nil
		},
	}
}
