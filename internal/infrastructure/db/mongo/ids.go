package mongo

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseID converts a hex identifier. Malformed ids are reported as not found
// by the callers, never as a server error.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// optionalID converts an optional reference; an empty string stays empty.
func optionalID(id string) (*primitive.ObjectID, bool) {
	if id == "" {
		return nil, true
	}
	oid, ok := parseID(id)
	if !ok {
		return nil, false
	}
	return &oid, true
}

func hexOrEmpty(oid *primitive.ObjectID) string {
	if oid == nil || oid.IsZero() {
		return ""
	}
	return oid.Hex()
}
