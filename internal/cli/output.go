package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/target/admin-console/internal/domain/model"
)

func (a *app) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(a.out, format, args...)
	return err
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printProfiles(profiles []*model.Profile) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUID\tUSERNAME\tEMAIL\tROLE")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.DisplayID, p.UID, p.Username, p.Email, p.Role)
	}
	return tw.Flush()
}

func (a *app) printTasks(tasks []*model.Task) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tASSIGNEE\tDUE\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.Priority, assignee(t), due(t), t.Title)
	}
	return tw.Flush()
}

func (a *app) printBoard(board model.TaskBoard) error {
	columns := []struct {
		name  string
		tasks []*model.Task
	}{
		{"To do", board.Todo},
		{"In progress", board.InProgress},
		{"Done", board.Done},
	}
	for i, col := range columns {
		if i > 0 {
			if err := a.printf("\n"); err != nil {
				return err
			}
		}
		if err := a.printf("%s (%d)\n%s\n", col.name, len(col.tasks), strings.Repeat("-", len(col.name)+4)); err != nil {
			return err
		}
		if len(col.tasks) == 0 {
			continue
		}
		if err := a.printTasks(col.tasks); err != nil {
			return err
		}
	}
	return nil
}

func assignee(t *model.Task) string {
	if t.AssigneeName != nil && *t.AssigneeName != "" {
		return *t.AssigneeName
	}
	if t.AssigneeID != nil {
		return *t.AssigneeID
	}
	return "-"
}

func due(t *model.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.Format("2006-01-02")
}
