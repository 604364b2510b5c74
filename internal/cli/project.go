package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewProjectCmd создаёт группу команд для управления projects.
func NewProjectCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and task catalog",
	}

	cmd.AddCommand(
		newProjectListCmd(clientFn, outputFn),
		newProjectCreateCmd(clientFn, outputFn),
		newProjectShowCmd(clientFn, outputFn),
		newProjectTasksCmd(clientFn, outputFn),
		newProjectAddTaskCmd(clientFn, outputFn),
		newProjectCheckInCmd(clientFn, outputFn),
	)

	return cmd
}

func newProjectListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			projects, err := client.ListProjects()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "ACTIVE", "CREATED"}
			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = []string{p.ID, p.Name, strconv.FormatBool(p.IsActive), p.CreatedAt}
			}

			out.Print(headers, rows, projects)
			return nil
		},
	}
}

func newProjectCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var lat, lng, radius, variance float64
	var strict bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project with a geofence",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			project, err := client.CreateProject(CreateProjectRequest{
				Name:                  name,
				CenterLatitude:        lat,
				CenterLongitude:       lng,
				RadiusMeters:          radius,
				StrictMode:            strict,
				AllowedVarianceMeters: variance,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Project created: %s", project.ID))
			if out.jsonMode {
				out.JSON(project)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (required)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Geofence center latitude (required)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Geofence center longitude (required)")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Geofence radius in meters (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Strict geofence mode (no variance)")
	cmd.Flags().Float64Var(&variance, "variance", 0, "Allowed variance in meters")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")
	cmd.MarkFlagRequired("radius")

	return cmd
}

func newProjectShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			project, err := client.GetProject(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED"},
				[][]string{{project.ID, project.Name, strconv.FormatBool(project.IsActive), project.CreatedAt}},
				project,
			)
			return nil
		},
	}
}

func newProjectTasksCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks ID",
		Short: "List the project's task catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tasks, err := client.ListProjectTasks(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "DESCRIPTION"}
			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = []string{t.ID, t.Name, t.Description}
			}

			out.Print(headers, rows, tasks)
			return nil
		},
	}
}

func newProjectAddTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var description string

	cmd := &cobra.Command{
		Use:   "add-task ID",
		Short: "Add a task to the project catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			task, err := client.CreateProjectTask(args[0], CreateTaskRequest{
				Name:        name,
				Description: description,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task created: %s", task.ID))
			if out.jsonMode {
				out.JSON(task)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Task name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newProjectCheckInCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workerID string
	var lat, lng, accuracy float64

	cmd := &cobra.Command{
		Use:   "checkin ID",
		Short: "Check a worker in on site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			checkin, err := client.CheckIn(CheckInRequest{
				WorkerID:       workerID,
				ProjectID:      args[0],
				Latitude:       lat,
				Longitude:      lng,
				AccuracyMeters: accuracy,
			})
			if err != nil {
				return err
			}

			status := "outside geofence"
			if checkin.InsideGeofence {
				status = "inside geofence"
			}
			out.Success(fmt.Sprintf("Checked in: %s (%.0fm from center, %s)",
				checkin.ID, checkin.DistanceMeters, status))
			if out.jsonMode {
				out.JSON(checkin)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker-id", "", "Worker ID (required)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Current latitude (required)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Current longitude (required)")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "GPS accuracy in meters")
	cmd.MarkFlagRequired("worker-id")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")

	return cmd
}
