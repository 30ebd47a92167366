package mongo

import (
	"alcyxob/gym-console/internal/repository"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var sheetEmbeds = []repository.Embed{
	{
		Table: repository.TableWorkoutSheetExercises, LocalKey: "id", ForeignKey: "workout_sheet_id",
		Embeds: []repository.Embed{{
			Table: repository.TableExercises, LocalKey: "exercise_id", ForeignKey: "id", Single: true,
		}},
	},
	{Table: repository.TableStudentWorkoutSheets, LocalKey: "id", ForeignKey: "workout_sheet_id"},
}

func TestLookupStagesNest(t *testing.T) {
	stages := lookupStages(sheetEmbeds)
	if len(stages) != 2 {
		t.Fatalf("got %d stages", len(stages))
	}
	lookup := stages[0][0].Value.(bson.D).Map()
	if lookup["from"] != repository.TableWorkoutSheetExercises || lookup["as"] != repository.TableWorkoutSheetExercises {
		t.Errorf("lookup = %v", lookup)
	}
	pipeline := lookup["pipeline"].(bson.A)
	if len(pipeline) != 2 {
		t.Fatalf("nested pipeline has %d stages, want lookup + project", len(pipeline))
	}
	inner := pipeline[0].(bson.D)[0].Value.(bson.D).Map()
	if inner["from"] != repository.TableExercises || inner["localField"] != "exercise_id" {
		t.Errorf("inner lookup = %v", inner)
	}
}

func TestNormalizeAndCollapse(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	price, _ := primitive.ParseDecimal128("79.90")
	doc := bson.M{
		"id":      "w1",
		"created": primitive.NewDateTimeFromTime(when),
		"price":   price,
		repository.TableWorkoutSheetExercises: bson.A{
			bson.M{"exercise_id": "ex001", "exercise_order": int32(0), repository.TableExercises: bson.A{
				bson.D{{Key: "id", Value: "ex001"}, {Key: "name", Value: "Supino"}},
			}},
			bson.M{"exercise_id": "ex999", "exercise_order": int32(1), repository.TableExercises: bson.A{}},
		},
		repository.TableStudentWorkoutSheets: bson.A{},
	}

	row := normalizeDoc(doc)
	collapse(row, sheetEmbeds)

	if created, ok := row["created"].(time.Time); !ok || !created.Equal(when) || created.Location() != time.UTC {
		t.Errorf("created = %#v", row["created"])
	}
	if row["price"] != "79.90" {
		t.Errorf("price = %#v", row["price"])
	}
	assignments, ok := row[repository.TableWorkoutSheetExercises].([]repository.Row)
	if !ok || len(assignments) != 2 {
		t.Fatalf("assignments = %#v", row[repository.TableWorkoutSheetExercises])
	}
	want := repository.Row{"id": "ex001", "name": "Supino"}
	if !reflect.DeepEqual(assignments[0][repository.TableExercises], want) {
		t.Errorf("embedded exercise = %#v", assignments[0][repository.TableExercises])
	}
	if assignments[1][repository.TableExercises] != nil {
		t.Errorf("missing exercise = %#v, want nil", assignments[1][repository.TableExercises])
	}
	if assoc, ok := row[repository.TableStudentWorkoutSheets].([]repository.Row); !ok || len(assoc) != 0 {
		t.Errorf("associations = %#v", row[repository.TableStudentWorkoutSheets])
	}
}

func TestToFilter(t *testing.T) {
	if got := toFilter(nil); len(got) != 0 {
		t.Errorf("toFilter(nil) = %v", got)
	}
	if got := toFilter(repository.Filter{"id": "x"}); got["id"] != "x" {
		t.Errorf("toFilter = %v", got)
	}
}
