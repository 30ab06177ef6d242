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

const collectionDocuments = "documents"

type DocumentRepository struct {
	col *mongo.Collection
}

func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	return &DocumentRepository{col: db.Collection(collectionDocuments)}
}

type storageDocument struct {
	Strategy   string `bson:"strategy"`
	Location   string `bson:"location"`
	ExternalID string `bson:"external_id,omitempty"`
}

type documentDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Name        string              `bson:"name"`
	Description string              `bson:"description,omitempty"`
	FileName    string              `bson:"file_name"`
	FileType    string              `bson:"file_type"`
	Size        int64               `bson:"size"`
	ClientID    primitive.ObjectID  `bson:"client_id"`
	UploadedBy  primitive.ObjectID  `bson:"uploaded_by"`
	TaskID      *primitive.ObjectID `bson:"task_id,omitempty"`
	Storage     storageDocument     `bson:"storage"`
	CreatedAt   time.Time           `bson:"created_at"`
}

func (d *documentDocument) toDomain() *domain.Document {
	return &domain.Document{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		FileName:    d.FileName,
		FileType:    d.FileType,
		Size:        d.Size,
		ClientID:    d.ClientID.Hex(),
		UploadedBy:  d.UploadedBy.Hex(),
		TaskID:      hexOrEmpty(d.TaskID),
		Storage: domain.StorageRef{
			Strategy:   domain.StorageStrategy(d.Storage.Strategy),
			Location:   d.Storage.Location,
			ExternalID: d.Storage.ExternalID,
		},
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	clientID, ok := parseID(doc.ClientID)
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	uploadedBy, ok := parseID(doc.UploadedBy)
	if !ok {
		return nil, fmt.Errorf("%w: invalid uploader id", domain.ErrInvalidInput)
	}
	taskID, ok := optionalID(doc.TaskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	record := documentDocument{
		Name:        doc.Name,
		Description: doc.Description,
		FileName:    doc.FileName,
		FileType:    doc.FileType,
		Size:        doc.Size,
		ClientID:    clientID,
		UploadedBy:  uploadedBy,
		TaskID:      taskID,
		Storage: storageDocument{
			Strategy:   string(doc.Storage.Strategy),
			Location:   doc.Storage.Location,
			ExternalID: doc.Storage.ExternalID,
		},
		CreatedAt: doc.CreatedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid
	}
	return record.toDomain(), nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var record documentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return record.toDomain(), nil
}

func (r *DocumentRepository) List(ctx context.Context, filter ports.DocumentFilter) ([]*domain.Document, error) {
	query := bson.M{}
	if filter.ClientID != "" {
		oid, ok := parseID(filter.ClientID)
		if !ok {
			return []*domain.Document{}, nil
		}
		query["client_id"] = oid
	}
	if filter.TaskID != "" {
		oid, ok := parseID(filter.TaskID)
		if !ok {
			return []*domain.Document{}, nil
		}
		query["task_id"] = oid
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var records []documentDocument
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	docs := make([]*domain.Document, 0, len(records))
	for i := range records {
		docs = append(docs, records[i].toDomain())
	}
	return docs, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	oid, ok := parseID(id)
	if !ok {
		return domain.ErrDocumentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) UnlinkTask(ctx context.Context, taskID string) error {
	oid, ok := parseID(taskID)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateMany(ctx, bson.M{"task_id": oid}, bson.M{"$unset": bson.M{"task_id": ""}})
	if err != nil {
		return fmt.Errorf("unlink task documents: %w", err)
	}
	return nil
}

// EnsureIndexes creates the client and task indexes.
func (r *DocumentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "task_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
