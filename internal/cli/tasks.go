package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
)

const (
	statusChoices   = "backlog, todo, in_progress, done, canceled"
	priorityChoices = "low, medium, high"
	dueLayout       = "2006-01-02"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with the task board",
	}
	cmd.AddCommand(newTasksListCmd(a))
	cmd.AddCommand(newTasksCreateCmd(a))
	cmd.AddCommand(newTasksMoveCmd(a))
	cmd.AddCommand(newTasksDeleteCmd(a))
	cmd.AddCommand(newTasksAssignedCmd(a))
	return cmd
}

func newTasksListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the task board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.session(cmd.Context()); err != nil {
				return err
			}
			board, err := a.client.Tasks.Board(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(board)
			}
			return a.printBoard(board.Columns)
		},
	}
}

func newTasksCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			req, err := createTaskRequest(cmd)
			if err != nil {
				return err
			}
			t, err := a.client.Tasks.Create(cmd.Context(), sess.UserID, req)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(t)
			}
			return a.printf("Created task %s: %s\n", t.ID, t.Title)
		},
	}
	cmd.Flags().String("title", "", "Title (required)")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("status", string(model.TaskStatusTodo), "Status ("+statusChoices+")")
	cmd.Flags().String("priority", string(model.TaskPriorityMedium), "Priority ("+priorityChoices+")")
	cmd.Flags().String("assignee", "", "Assignee uid")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringSlice("tags", nil, "Comma-separated tags")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func createTaskRequest(cmd *cobra.Command) (*model.CreateTaskRequest, error) {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	statusFlag, _ := cmd.Flags().GetString("status")
	priorityFlag, _ := cmd.Flags().GetString("priority")
	assigneeFlag, _ := cmd.Flags().GetString("assignee")
	dueFlag, _ := cmd.Flags().GetString("due")
	tags, _ := cmd.Flags().GetStringSlice("tags")

	status, ok := model.ParseTaskStatus(statusFlag)
	if !ok {
		return nil, errUsage("status", statusFlag, statusChoices)
	}
	priority, ok := model.ParseTaskPriority(priorityFlag)
	if !ok {
		return nil, errUsage("priority", priorityFlag, priorityChoices)
	}
	req := &model.CreateTaskRequest{
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		Tags:        tags,
	}
	if assigneeFlag != "" {
		req.AssigneeID = &assigneeFlag
	}
	if dueFlag != "" {
		d, err := time.ParseInLocation(dueLayout, dueFlag, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --due %q: use YYYY-MM-DD", dueFlag)
		}
		req.DueDate = &d
	}
	return req, nil
}

func newTasksMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.session(cmd.Context()); err != nil {
				return err
			}
			status, ok := model.ParseTaskStatus(args[1])
			if !ok {
				return errUsage("status", args[1], statusChoices)
			}
			t, err := a.client.Tasks.Move(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(t)
			}
			return a.printf("Moved %s to %s\n", t.ID, t.Status)
		},
	}
}

func newTasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task (core and admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireRole(cmd.Context(), domainauth.RoleCore); err != nil {
				return err
			}
			if err := a.client.Tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printf("Deleted task %s\n", args[0])
		},
	}
}

func newTasksAssignedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assigned [uid]",
		Short: "List tasks assigned to a member (default: you), soonest due first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			uid := sess.UserID
			if len(args) == 1 {
				uid = args[0]
			}
			tasks, err := a.client.Tasks.ListByAssignee(cmd.Context(), uid)
			if err != nil {
				return err
			}
			if a.asJSON {
				if tasks == nil {
					tasks = []*model.Task{}
				}
				return a.printJSON(tasks)
			}
			if len(tasks) == 0 {
				return a.printf("No tasks assigned\n")
			}
			return a.printTasks(tasks)
		},
	}
}
