package mongo

import (
	"alcyxob/gym-console/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTables implements repository.Tables with one collection per table.
// Nested selections are resolved server-side with $lookup stages.
type mongoTables struct {
	db *mongo.Database
}

// NewMongoTables creates a Tables adapter over db.
func NewMongoTables(db *mongo.Database) repository.Tables {
	return &mongoTables{db: db}
}

// Select runs $match followed by one $lookup per embed.
func (t *mongoTables) Select(ctx context.Context, q repository.Query) ([]repository.Row, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: toFilter(q.Filter)}}}
	pipeline = append(pipeline, lookupStages(q.Embeds)...)
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{"_id": 0}}})

	cursor, err := t.db.Collection(q.Table).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	rows := make([]repository.Row, 0, len(docs))
	for _, doc := range docs {
		row := normalizeDoc(doc)
		collapse(row, q.Embeds)
		rows = append(rows, row)
	}
	return rows, nil
}

// Insert adds rows in order. A unique index violation maps to ErrDuplicateKey.
func (t *mongoTables) Insert(ctx context.Context, table string, rows ...repository.Row) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, bson.M(r))
	}
	_, err := t.db.Collection(table).InsertMany(ctx, docs)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// Update sets the patch columns on every matching row.
func (t *mongoTables) Update(ctx context.Context, table string, filter repository.Filter, patch repository.Row) (int64, error) {
	coll := t.db.Collection(table)
	if len(patch) == 0 {
		// $set rejects an empty document; report the match count only.
		return coll.CountDocuments(ctx, toFilter(filter))
	}
	result, err := coll.UpdateMany(ctx, toFilter(filter), bson.M{"$set": bson.M(patch)})
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

// Upsert merges each row into the document sharing its conflictKey value.
func (t *mongoTables) Upsert(ctx context.Context, table string, conflictKey string, rows ...repository.Row) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(rows))
	for _, r := range rows {
		key, ok := r[conflictKey]
		if !ok {
			return errors.New("upsert row is missing conflict key " + conflictKey)
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{conflictKey: key}).
			SetUpdate(bson.M{"$set": bson.M(r)}).
			SetUpsert(true))
	}
	_, err := t.db.Collection(table).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}

// Delete removes every matching row.
func (t *mongoTables) Delete(ctx context.Context, table string, filter repository.Filter) (int64, error) {
	result, err := t.db.Collection(table).DeleteMany(ctx, toFilter(filter))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func toFilter(f repository.Filter) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}

// lookupStages builds a $lookup per embed. Combining localField/foreignField
// with a sub-pipeline requires MongoDB 5.0 or newer.
func lookupStages(embeds []repository.Embed) []bson.D {
	stages := make([]bson.D, 0, len(embeds))
	for _, e := range embeds {
		sub := bson.A{}
		for _, s := range lookupStages(e.Embeds) {
			sub = append(sub, s)
		}
		sub = append(sub, bson.D{{Key: "$project", Value: bson.M{"_id": 0}}})

		stages = append(stages, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: e.Table},
			{Key: "localField", Value: e.LocalKey},
			{Key: "foreignField", Value: e.ForeignKey},
			{Key: "pipeline", Value: sub},
			{Key: "as", Value: e.Key()},
		}}})
	}
	return stages
}

// collapse turns $lookup arrays into []Row, or a single Row for to-one embeds.
func collapse(row repository.Row, embeds []repository.Embed) {
	for _, e := range embeds {
		var related []repository.Row
		if list, ok := row[e.Key()].([]any); ok {
			for _, item := range list {
				if child, ok := item.(repository.Row); ok {
					collapse(child, e.Embeds)
					related = append(related, child)
				}
			}
		}
		if e.Single {
			if len(related) == 0 {
				row[e.Key()] = nil
			} else {
				row[e.Key()] = related[0]
			}
			continue
		}
		if related == nil {
			related = []repository.Row{}
		}
		row[e.Key()] = related
	}
}

func normalizeDoc(doc bson.M) repository.Row {
	row := make(repository.Row, len(doc))
	for k, v := range doc {
		row[k] = normalize(v)
	}
	return row
}

// normalize converts driver types into plain Go values.
func normalize(v any) any {
	switch x := v.(type) {
	case bson.M:
		return normalizeDoc(x)
	case bson.D:
		row := make(repository.Row, len(x))
		for _, e := range x {
			row[e.Key] = normalize(e.Value)
		}
		return row
	case map[string]any:
		return normalizeDoc(bson.M(x))
	case bson.A:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Decimal128:
		return x.String()
	default:
		return v
	}
}
