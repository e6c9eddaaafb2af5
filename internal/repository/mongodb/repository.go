// Package mongodb stores time entries in a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// Repository implements timesheet.Store for MongoDB.
type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
	loc    *time.Location
	logger *zap.Logger
}

// NewRepository connects to uri and uses dbName.collName for entries.
func NewRepository(ctx context.Context, uri, dbName, collName string, loc *time.Location, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{
		client: client,
		coll:   client.Database(dbName).Collection(collName),
		loc:    loc,
		logger: logger,
	}, nil
}

// FetchEntries implements timesheet.Fetcher.
func (r *Repository) FetchEntries(ctx context.Context, q model.Query) ([]model.RawTimeEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "entryTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, buildFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find time entries: %w", err)
	}
	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode time entries: %w", err)
	}

	entries := make([]model.RawTimeEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.toModel(r.loc))
	}
	r.logger.Debug("fetched time entries", zap.Int("count", len(entries)))
	return entries, nil
}

func (r *Repository) GetEntry(ctx context.Context, id string) (model.RawTimeEntry, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	var doc entryDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.RawTimeEntry{}, notFound(err, id)
	}
	return doc.toModel(r.loc), nil
}

func (r *Repository) CreateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	doc := newDocument(e)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	if doc.Status == "" {
		doc.Status = string(model.StatePending)
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return model.RawTimeEntry{}, fmt.Errorf("failed to insert time entry: %w", err)
	}
	return doc.toModel(r.loc), nil
}

func (r *Repository) UpdateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	oid, err := objectID(e.ID)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	doc := newDocument(e)
	doc.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": doc}
	if doc.ExitTime == nil {
		update["$unset"] = bson.M{"exitTime": ""}
	}
	return r.findAndUpdate(ctx, oid, update)
}

func (r *Repository) DeleteEntry(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", timesheet.ErrNotFound, id)
	}
	return nil
}

// Approve implements timesheet.Reviewer.
func (r *Repository) Approve(ctx context.Context, id string) (model.RawTimeEntry, error) {
	return r.review(ctx, id, model.StateApproved, "")
}

// Reject implements timesheet.Reviewer.
func (r *Repository) Reject(ctx context.Context, id, reason string) (model.RawTimeEntry, error) {
	return r.review(ctx, id, model.StateRejected, reason)
}

func (r *Repository) review(ctx context.Context, id string, state model.ApprovalState, reason string) (model.RawTimeEntry, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	set := bson.M{"status": string(state), "updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if reason != "" {
		set["rejectedReason"] = reason
	} else {
		update["$unset"] = bson.M{"rejectedReason": ""}
	}
	return r.findAndUpdate(ctx, oid, update)
}

func (r *Repository) findAndUpdate(ctx context.Context, oid primitive.ObjectID, update bson.M) (model.RawTimeEntry, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc entryDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return model.RawTimeEntry{}, notFound(err, oid.Hex())
	}
	return doc.toModel(r.loc), nil
}

// OpenEntry implements timesheet.OpenShiftFinder.
func (r *Repository) OpenEntry(ctx context.Context, employeeID string, since model.CalendarDate) (*model.RawTimeEntry, error) {
	filter := bson.M{
		"employee.id": employeeID,
		"exitTime":    nil,
		"date":        bson.M{"$gte": since.In(time.UTC)},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "entryTime", Value: -1}})
	var doc entryDocument
	err := r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open shift: %w", err)
	}
	e := doc.toModel(r.loc)
	return &e, nil
}

// ListEmployees implements timesheet.Directory from the employees seen in
// stored entries.
func (r *Repository) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$employee.id"},
			{Key: "name", Value: bson.D{{Key: "$last", Value: "$employee.name"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate employees: %w", err)
	}
	var rows []struct {
		ID   string `bson:"_id"`
		Name string `bson:"name"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode employees: %w", err)
	}
	out := make([]model.Employee, 0, len(rows))
	for _, row := range rows {
		if row.ID != "" {
			out = append(out, model.Employee{ID: row.ID, Name: row.Name})
		}
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// buildFilter translates q into a collection filter. Dates are stored as
// midnight UTC of the calendar date.
func buildFilter(q model.Query) bson.M {
	filter := bson.M{}
	date := bson.M{}
	if !q.Start.IsZero() {
		date["$gte"] = q.Start.In(time.UTC)
	}
	if !q.End.IsZero() {
		date["$lte"] = q.End.In(time.UTC)
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	if q.EmployeeID != "" {
		filter["employee.id"] = q.EmployeeID
	}
	if q.Status != "" {
		filter["status"] = string(q.Status)
	}
	return filter
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not an object id", timesheet.ErrNotFound, id)
	}
	return oid, nil
}

func notFound(err error, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", timesheet.ErrNotFound, id)
	}
	return fmt.Errorf("time entry %s: %w", id, err)
}
