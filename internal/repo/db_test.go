package repo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsIndexConflict(t *testing.T) {
	if !isIndexConflict(mongo.CommandError{Code: 85, Name: "IndexOptionsConflict"}) {
		t.Fatalf("code 85 is a conflict")
	}
	if !isIndexConflict(mongo.CommandError{Code: 86, Name: "IndexKeySpecsConflict"}) {
		t.Fatalf("code 86 is a conflict")
	}
	if isIndexConflict(mongo.CommandError{Code: 11000}) {
		t.Fatalf("duplicate key is not an index conflict")
	}
	if isIndexConflict(errors.New("network timeout")) {
		t.Fatalf("plain errors are not conflicts")
	}
	if isIndexConflict(nil) {
		t.Fatalf("nil is not a conflict")
	}
}
