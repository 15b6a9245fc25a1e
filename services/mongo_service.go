package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"onusone/config"
	"onusone/models"
)

// MongoService persists engine history: burn records, payout batches,
// network snapshots and economic profiles. All writes are best-effort; a
// Mongo outage never blocks a sweep or a payout cycle.
type MongoService struct {
	client   *mongo.Client
	database *mongo.Database
	enabled  bool

	burnRecords   *mongo.Collection
	payoutBatches *mongo.Collection
	snapshots     *mongo.Collection
	profiles      *mongo.Collection
}

// burnRecordDoc wraps a BurnRecord with the content item it belongs to.
type burnRecordDoc struct {
	ContentID string             `bson:"content_id"`
	Record    models.BurnRecord  `bson:"record"`
	CreatedAt time.Time          `bson:"created_at"`
}

func NewMongoService(cfg *config.Config) (*MongoService, error) {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB disabled, history persistence unavailable")
		return &MongoService{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoDB.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.MongoDB.Database)
	ms := &MongoService{
		client:        client,
		database:      database,
		enabled:       true,
		burnRecords:   database.Collection("burn_records"),
		payoutBatches: database.Collection("payout_batches"),
		snapshots:     database.Collection("network_snapshots"),
		profiles:      database.Collection("economic_profiles"),
	}

	if err := ms.createIndexes(ctx); err != nil {
		log.Printf("Warning: failed to create MongoDB indexes: %v", err)
	}

	log.Println("✓ Connected to MongoDB")
	return ms, nil
}

func (ms *MongoService) createIndexes(ctx context.Context) error {
	burnIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "content_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := ms.burnRecords.Indexes().CreateMany(ctx, burnIndexes); err != nil {
		return err
	}

	batchIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "batch_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
	if _, err := ms.payoutBatches.Indexes().CreateMany(ctx, batchIndexes); err != nil {
		return err
	}

	snapshotIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "last_updated", Value: -1}}},
	}
	if _, err := ms.snapshots.Indexes().CreateMany(ctx, snapshotIndexes); err != nil {
		return err
	}

	profileIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := ms.profiles.Indexes().CreateMany(ctx, profileIndexes); err != nil {
		return err
	}

	return nil
}

// Enabled reports whether persistence is available.
func (ms *MongoService) Enabled() bool {
	return ms.enabled
}

// InsertBurnRecord stores an executed burn against its content item.
func (ms *MongoService) InsertBurnRecord(contentID string, record models.BurnRecord) {
	if !ms.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := burnRecordDoc{
		ContentID: contentID,
		Record:    record,
		CreatedAt: record.Timestamp,
	}
	if _, err := ms.burnRecords.InsertOne(ctx, doc); err != nil {
		log.Printf("Failed to persist burn record for %s: %v", contentID, err)
	}
}

// InsertPayoutBatch stores a completed payout batch.
func (ms *MongoService) InsertPayoutBatch(batch *models.PayoutBatch) {
	if !ms.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := ms.payoutBatches.InsertOne(ctx, batch); err != nil {
		log.Printf("Failed to persist payout batch %s: %v", batch.BatchID, err)
	}
}

// InsertNetworkSnapshot stores the metrics snapshot taken at cycle start.
func (ms *MongoService) InsertNetworkSnapshot(metrics models.NetworkMetrics) {
	if !ms.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := ms.snapshots.InsertOne(ctx, metrics); err != nil {
		log.Printf("Failed to persist network snapshot: %v", err)
	}
}

// UpsertProfile stores the latest state of an economic profile.
func (ms *MongoService) UpsertProfile(profile *models.UserEconomicProfile) {
	if !ms.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"user_id": profile.UserID}
	update := bson.M{"$set": profile}
	opts := options.Update().SetUpsert(true)

	if _, err := ms.profiles.UpdateOne(ctx, filter, update, opts); err != nil {
		log.Printf("Failed to persist profile %s: %v", profile.UserID, err)
	}
}

// RecentBatches returns the most recent persisted payout batches.
func (ms *MongoService) RecentBatches(limit int) ([]models.PayoutBatch, error) {
	if !ms.enabled {
		return nil, fmt.Errorf("mongodb not enabled")
	}
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := ms.payoutBatches.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var batches []models.PayoutBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// BurnHistory returns persisted burn records for a content item, newest
// first.
func (ms *MongoService) BurnHistory(contentID string, limit int) ([]models.BurnRecord, error) {
	if !ms.enabled {
		return nil, fmt.Errorf("mongodb not enabled")
	}
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := ms.burnRecords.Find(ctx, bson.M{"content_id": contentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []burnRecordDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]models.BurnRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.Record)
	}
	return records, nil
}

// Close disconnects from MongoDB.
func (ms *MongoService) Close() error {
	if !ms.enabled || ms.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return ms.client.Disconnect(ctx)
}
