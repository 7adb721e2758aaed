package devseed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/admin-console/internal/core"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	"github.com/target/admin-console/internal/service"
)

// DefaultPassword is the password given to every seeded team member.
const DefaultPassword = "spaceborn123"

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Profiles core.ProfileRepository
	Team     *service.ProfileService
	Tasks    *service.TaskService
	Setup    *service.SetupService
}

// Admin identifies the bootstrap administrator the seed runs as.
type Admin struct {
	Email    string
	Username string
	Password string
}

type member struct {
	Username string
	Email    string
	Role     domainauth.Role
}

func defaultTeam() []member {
	return []member{
		{Username: "Nova Reyes", Email: "nova@spaceborn.io", Role: domainauth.RoleCore},
		{Username: "Kai Tanaka", Email: "kai@spaceborn.io", Role: domainauth.RoleEmployee},
		{Username: "Mira Okafor", Email: "mira@spaceborn.io", Role: domainauth.RoleEmployee},
		{Username: "Leo Brandt", Email: "leo@spaceborn.io", Role: domainauth.RoleIntern},
	}
}

// Run ensures the bootstrap admin, a small team, and a starter task board exist.
// It is safe to run repeatedly: existing profiles are left alone and tasks are only
// seeded into an empty board.
func Run(ctx context.Context, svcs Services, admin Admin, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	res, err := svcs.Setup.EnsureBootstrapAdmin(ctx, service.BootstrapAdminRequest{
		Email:    admin.Email,
		Password: admin.Password,
		Username: admin.Username,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.InfoContext(ctx, "bootstrap admin ready", "uid", res.UID, "profile_created", res.ProfileCreated)

	failures := 0
	team := map[string]string{}
	for _, m := range defaultTeam() {
		uid, err := ensureMember(ctx, svcs, m)
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed team member", "email", m.Email, "error", err)
			failures++
			continue
		}
		team[m.Email] = uid
	}

	failures += seedTasks(ctx, svcs.Tasks, res.UID, team, logger)
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func ensureMember(ctx context.Context, svcs Services, m member) (string, error) {
	existing, err := svcs.Profiles.GetByEmail(ctx, m.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.UID, nil
	}
	p, err := svcs.Team.Provision(ctx, service.ProvisionRequest{
		CreateProfileRequest: model.CreateProfileRequest{Username: m.Username, Email: m.Email, Role: m.Role},
		Password:             DefaultPassword,
	})
	if err != nil {
		return "", err
	}
	return p.UID, nil
}

type seedTask struct {
	Title    string
	Status   model.TaskStatus
	Priority model.TaskPriority
	Assignee string // email; empty leaves the task unassigned
	DueIn    time.Duration
	Tags     []string
}

func defaultTasks() []seedTask {
	return []seedTask{
		{Title: "Draft Q3 launch checklist", Status: model.TaskStatusTodo, Priority: model.TaskPriorityHigh, Assignee: "nova@spaceborn.io", DueIn: 72 * time.Hour, Tags: []string{"launch"}},
		{Title: "Review telemetry dashboards", Status: model.TaskStatusInProgress, Priority: model.TaskPriorityMedium, Assignee: "kai@spaceborn.io", DueIn: 48 * time.Hour},
		{Title: "Update onboarding guide", Status: model.TaskStatusBacklog, Priority: model.TaskPriorityLow, Assignee: "leo@spaceborn.io", Tags: []string{"docs"}},
		{Title: "Rotate ground station credentials", Status: model.TaskStatusDone, Priority: model.TaskPriorityHigh, Assignee: "mira@spaceborn.io"},
		{Title: "Triage unassigned support tickets", Status: model.TaskStatusTodo, Priority: model.TaskPriorityMedium},
	}
}

func seedTasks(ctx context.Context, svc *service.TaskService, creatorUID string, team map[string]string, logger *slog.Logger) int {
	existing, err := svc.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list tasks", "error", err)
		return 1
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "task board already populated", "tasks", len(existing))
		return 0
	}

	failures := 0
	now := time.Now().UTC()
	for _, st := range defaultTasks() {
		req := &model.CreateTaskRequest{
			Title:    st.Title,
			Status:   st.Status,
			Priority: st.Priority,
			Tags:     st.Tags,
		}
		if st.Assignee != "" {
			uid, ok := team[st.Assignee]
			if !ok {
				logger.WarnContext(ctx, "assignee not seeded, leaving task unassigned", "title", st.Title, "assignee", st.Assignee)
			} else {
				req.AssigneeID = &uid
			}
		}
		if st.DueIn > 0 {
			due := now.Add(st.DueIn)
			req.DueDate = &due
		}
		if _, err := svc.Create(ctx, creatorUID, req); err != nil {
			logger.ErrorContext(ctx, "failed to create task", "title", st.Title, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "created task", "title", st.Title)
	}
	return failures
}
