package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hirelab/crucible/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ArchiveRepository persists terminal jobs so generation history survives
// process restarts. The in-memory registry remains the source of truth
// for live jobs; the archive is read-only from the API.
type ArchiveRepository struct {
	collection *mongo.Collection
}

// NewArchiveRepository creates a new archive repository.
func NewArchiveRepository(db *MongoDB) *ArchiveRepository {
	return &ArchiveRepository{
		collection: db.GetCollection(CollectionJobArchive),
	}
}

// Archive upserts a terminal job record keyed by job id.
func (r *ArchiveRepository) Archive(ctx context.Context, job model.Job) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"job_id": job.ID}
	update := bson.M{"$set": job}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctxTimeout, filter, update, opts); err != nil {
		return fmt.Errorf("failed to archive job: %w", err)
	}
	return nil
}

// List retrieves archived jobs with pagination, newest first.
func (r *ArchiveRepository) List(ctx context.Context, page, limit int) ([]model.Job, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	total, err := r.collection.CountDocuments(ctxTimeout, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count archived jobs: %w", err)
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list archived jobs: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var jobs []model.Job
	if err := cursor.All(ctxTimeout, &jobs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode archived jobs: %w", err)
	}

	return jobs, total, nil
}

// Get retrieves one archived job by id.
func (r *ArchiveRepository) Get(ctx context.Context, jobID string) (*model.Job, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var job model.Job
	err := r.collection.FindOne(ctxTimeout, bson.M{"job_id": jobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get archived job: %w", err)
	}

	return &job, nil
}
