package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

const collectionTasks = "tasks"

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(collectionTasks)}
}

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	ClientID    primitive.ObjectID `bson:"client_id"`
	CreatedBy   primitive.ObjectID `bson:"created_by"`
	Deadline    time.Time          `bson:"deadline"`
	Status      string             `bson:"status"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func newTaskDocument(t *domain.Task) (taskDocument, error) {
	clientID, ok := parseID(t.ClientID)
	if !ok {
		return taskDocument{}, domain.ErrClientNotFound
	}
	createdBy, ok := parseID(t.CreatedBy)
	if !ok {
		return taskDocument{}, fmt.Errorf("%w: invalid creator id", domain.ErrInvalidInput)
	}
	return taskDocument{
		Title:       t.Title,
		Description: t.Description,
		ClientID:    clientID,
		CreatedBy:   createdBy,
		Deadline:    t.Deadline,
		Status:      string(t.Status),
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

func (d *taskDocument) toDomain() *domain.Task {
	task := &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		ClientID:    d.ClientID.Hex(),
		CreatedBy:   d.CreatedBy.Hex(),
		Deadline:    d.Deadline.UTC(),
		Status:      domain.TaskStatus(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.CompletedAt != nil {
		at := d.CompletedAt.UTC()
		task.CompletedAt = &at
	}
	return task
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	doc, err := newTaskDocument(task)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc taskDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return doc.toDomain(), nil
}

// taskQuery translates a filter into a Mongo query. ok is false when the
// filter can match nothing (a malformed client id).
func taskQuery(filter ports.TaskFilter) (query bson.M, ok bool) {
	query = bson.M{}
	if filter.ClientID != "" {
		oid, valid := parseID(filter.ClientID)
		if !valid {
			return nil, false
		}
		query["client_id"] = oid
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query["status"] = bson.M{"$in": statuses}
	}
	deadline := bson.M{}
	if !filter.DeadlineFrom.IsZero() {
		deadline["$gt"] = filter.DeadlineFrom
	}
	if !filter.DeadlineTo.IsZero() {
		deadline["$lte"] = filter.DeadlineTo
	}
	if len(deadline) > 0 {
		query["deadline"] = deadline
	}
	return query, true
}

func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*domain.Task, error) {
	query, ok := taskQuery(filter)
	if !ok {
		return []*domain.Task{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].toDomain())
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	oid, ok := parseID(task.ID)
	if !ok {
		return domain.ErrTaskNotFound
	}
	doc, err := newTaskDocument(task)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"client_id":   doc.ClientID,
		"deadline":    doc.Deadline,
		"status":      doc.Status,
		"updated_at":  doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.CompletedAt != nil {
		set["completed_at"] = doc.CompletedAt
	} else {
		update["$unset"] = bson.M{"completed_at": ""}
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	oid, ok := parseID(id)
	if !ok {
		return domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteByClient(ctx context.Context, clientID string) (int64, error) {
	oid, ok := parseID(clientID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"client_id": oid})
	if err != nil {
		return 0, fmt.Errorf("delete client tasks: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the client and deadline indexes.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "deadline", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "deadline", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
