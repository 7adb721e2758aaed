package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
)

// taskDoc stores the priority rank next to the task so the collection can sort on it.
type taskDoc struct {
	model.Task   `bson:",inline"`
	PriorityRank int `bson:"priority_rank"`
}

// TaskRepo stores tasks in the tasks collection.
type TaskRepo struct {
	col *mongo.Collection
	now func() time.Time
}

// NewTaskRepo creates a TaskRepo on db.
func NewTaskRepo(db *mongo.Database) *TaskRepo {
	return &TaskRepo{col: db.Collection(tasksCollection), now: time.Now}
}

// Create inserts a task with a generated id and stamps created_at/updated_at.
func (r *TaskRepo) Create(ctx context.Context, req *model.CreateTaskRequest) (*model.Task, error) {
	if req == nil {
		return nil, errors.New("create task request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	t := model.Task{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		AssigneeID:    req.AssigneeID,
		AssigneeName:  req.AssigneeName,
		AssigneePhoto: req.AssigneePhoto,
		DueDate:       req.DueDate,
		Tags:          req.Tags,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.col.InsertOne(ctx, taskDoc{Task: t, PriorityRank: t.Priority.Rank()}); err != nil {
		return nil, mapErr(err, "failed to create task")
	}
	return &t, nil
}

// List returns every task ordered by priority rank then most recently updated.
func (r *TaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	sort := bson.D{{Key: "priority_rank", Value: -1}, {Key: "updated_at", Value: -1}}
	return r.find(ctx, bson.M{}, options.Find().SetSort(sort))
}

// ListByAssignee returns tasks assigned to uid, soonest due date first; undated tasks last.
func (r *TaskRepo) ListByAssignee(ctx context.Context, uid string) ([]*model.Task, error) {
	// MongoDB sorts missing fields first, so undated tasks are moved in memory.
	out, err := r.find(ctx, bson.M{"assignee_id": uid}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	model.SortTasksByDueDate(out)
	return out, nil
}

func (r *TaskRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Task, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err, "failed to list tasks")
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err, "failed to decode tasks")
	}
	out := make([]*model.Task, len(docs))
	for i := range docs {
		out[i] = &docs[i].Task
	}
	return out, nil
}

// GetByID returns the task or nil when absent.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var doc taskDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err, "failed to get task")
	}
	return &doc.Task, nil
}

// Update applies a partial update and stamps updated_at.
func (r *TaskRepo) Update(ctx context.Context, id string, req model.UpdateTaskRequest) (*model.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	var doc taskDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, buildTaskUpdate(req, r.now().UTC().Truncate(time.Millisecond)),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(err, "task not found")
	}
	return &doc.Task, nil
}

func buildTaskUpdate(req model.UpdateTaskRequest, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}
	if req.Priority != nil {
		set["priority"] = *req.Priority
		set["priority_rank"] = req.Priority.Rank()
	}
	if req.AssigneeID != nil && *req.AssigneeID == "" {
		unset["assignee_id"], unset["assignee_name"], unset["assignee_photo"] = "", "", ""
	} else {
		if req.AssigneeID != nil {
			set["assignee_id"] = *req.AssigneeID
		}
		if req.AssigneeName != nil {
			set["assignee_name"] = *req.AssigneeName
		}
		if req.AssigneePhoto != nil {
			set["assignee_photo"] = *req.AssigneePhoto
		}
	}
	if req.DueDate != nil {
		set["due_date"] = req.DueDate.UTC()
	}
	if req.Tags != nil {
		set["tags"] = *req.Tags
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// Delete removes the task. Deleting a missing task is not an error.
func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return mapErr(err, "failed to delete task")
	}
	return nil
}
