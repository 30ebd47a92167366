package mongo

import (
	"alcyxob/gym-console/internal/repository"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collectionIndexes lists the indexes each collection needs. Unique keys back
// the upsert conflict keys and the duplicate-email check.
var collectionIndexes = map[string][]mongo.IndexModel{
	credentialCollectionName: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	repository.TableUserRoles: {
		{Keys: bson.D{{Key: "role_name", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	repository.TableProfiles: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	repository.TableStudents: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	repository.TableExercises: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	repository.TableWorkoutSheets: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	repository.TableWorkoutSheetExercises: {
		{Keys: bson.D{{Key: "workout_sheet_id", Value: 1}, {Key: "exercise_order", Value: 1}}},
	},
	repository.TableStudentWorkoutSheets: {
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "workout_sheet_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "workout_sheet_id", Value: 1}}},
	},
}

// EnsureIndexes creates the indexes of every collection.
// Call this once during application startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range collectionIndexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}
