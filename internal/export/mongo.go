package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"formbuilder/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoSink upserts one document per submission into a collection.
type mongoSink struct {
	client     *mongo.Client
	dbName     string
	collection string
}

func newMongoSink(dest *domain.ExportDestination, password string) (*mongoSink, error) {
	uri, dbName := buildMongoURI(dest, password)
	log.Printf("[MONGO] Connecting with URI: %s", maskPassword(uri, password))

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoSink{client: client, dbName: dbName, collection: dest.Table}, nil
}

func (m *mongoSink) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoSink) Write(ctx context.Context, def domain.FormDefinition, subs []domain.Submission) (int, error) {
	if len(subs) == 0 {
		return 0, nil
	}
	cols := Columns(def)
	rows, err := Rows(cols, subs)
	if err != nil {
		return 0, err
	}

	models := make([]mongo.WriteModel, 0, len(rows))
	for i, r := range rows {
		doc := Document(cols, r, subs[i].CreatedAt)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": r.SubmissionID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	coll := m.client.Database(m.dbName).Collection(m.collection)
	if _, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return 0, fmt.Errorf("bulk write %s: %w", m.collection, err)
	}
	log.Printf("[MONGO] wrote %d documents to %s.%s", len(models), m.dbName, m.collection)
	return len(models), nil
}

func (m *mongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Document renders a row as the stored BSON document.
func Document(cols []Column, r Row, submittedAt time.Time) bson.D {
	values := bson.D{}
	for i, c := range cols {
		values = append(values, bson.E{Key: c.Name, Value: r.Values[i]})
	}
	return bson.D{
		{Key: "_id", Value: r.SubmissionID},
		{Key: "formId", Value: r.FormID},
		{Key: "submittedAt", Value: submittedAt.UTC()},
		{Key: "values", Value: values},
	}
}
