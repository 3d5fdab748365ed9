package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/pokecard-services/internal/db"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	syncRunsCollection    = "sync_runs"
	validationsCollection = "validation_reports"
)

// MongoAuditStore keeps sync runs and validation reports in Mongo. Documents
// expire after the configured retention via a TTL index on expires_at.
type MongoAuditStore struct {
	runs      *mongo.Collection
	reports   *mongo.Collection
	retention time.Duration
}

func NewMongoAuditStore(ctx context.Context, database *mongo.Database, retention time.Duration) (*MongoAuditStore, error) {
	for _, name := range []string{syncRunsCollection, validationsCollection} {
		if err := db.CreateTTLIndexForCollection(ctx, database, name); err != nil {
			return nil, err
		}
	}
	return &MongoAuditStore{
		runs:      database.Collection(syncRunsCollection),
		reports:   database.Collection(validationsCollection),
		retention: retention,
	}, nil
}

func (s *MongoAuditStore) SaveSyncRun(ctx context.Context, run *models.SyncRun) error {
	at := run.FinishedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	run.ExpiresAt = at.Add(s.retention)
	_, err := s.runs.ReplaceOne(ctx, bson.M{"run_id": run.RunID}, run, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save sync run %s: %w", run.RunID, err)
	}
	return nil
}

func (s *MongoAuditStore) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"results": 0})

	cursor, err := s.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	var runs []models.SyncRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode sync runs: %w", err)
	}
	return runs, nil
}

func (s *MongoAuditStore) LastSyncRun(ctx context.Context) (*models.SyncRun, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetProjection(bson.M{"results": 0})

	var run models.SyncRun
	err := s.runs.FindOne(ctx, bson.M{}, opts).Decode(&run)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("no sync runs: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("last sync run: %w", err)
	}
	return &run, nil
}

func (s *MongoAuditStore) SaveValidationReport(ctx context.Context, report *models.ValidationReport) error {
	report.ExpiresAt = report.RunAt.Add(s.retention)
	_, err := s.reports.InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("save validation report %s: %w", report.RunID, err)
	}
	return nil
}

func (s *MongoAuditStore) ListValidationReports(ctx context.Context, limit int) ([]models.ValidationReport, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "run_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.reports.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list validation reports: %w", err)
	}
	var reports []models.ValidationReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode validation reports: %w", err)
	}
	return reports, nil
}

// MemoryAuditStore is the audit log used when no Mongo is configured.
// It keeps at most max entries of each kind.
type MemoryAuditStore struct {
	mu      sync.Mutex
	max     int
	runs    []models.SyncRun
	reports []models.ValidationReport
}

func NewMemoryAuditStore(max int) *MemoryAuditStore {
	if max <= 0 {
		max = 100
	}
	return &MemoryAuditStore{max: max}
}

func (s *MemoryAuditStore) SaveSyncRun(_ context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, *run)
	sort.SliceStable(s.runs, func(i, j int) bool { return s.runs[i].StartedAt.After(s.runs[j].StartedAt) })
	if len(s.runs) > s.max {
		s.runs = s.runs[:s.max]
	}
	return nil
}

func (s *MemoryAuditStore) ListSyncRuns(_ context.Context, limit int) ([]models.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(limit, len(s.runs))
	out := make([]models.SyncRun, n)
	for i := range out {
		out[i] = s.runs[i]
		out[i].Results = nil
	}
	return out, nil
}

func (s *MemoryAuditStore) LastSyncRun(_ context.Context) (*models.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.runs) == 0 {
		return nil, fmt.Errorf("no sync runs: %w", models.ErrNotFound)
	}
	run := s.runs[0]
	run.Results = nil
	return &run, nil
}

func (s *MemoryAuditStore) SaveValidationReport(_ context.Context, report *models.ValidationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append([]models.ValidationReport{*report}, s.reports...)
	if len(s.reports) > s.max {
		s.reports = s.reports[:s.max]
	}
	return nil
}

func (s *MemoryAuditStore) ListValidationReports(_ context.Context, limit int) ([]models.ValidationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(limit, len(s.reports))
	return append([]models.ValidationReport(nil), s.reports[:n]...), nil
}
