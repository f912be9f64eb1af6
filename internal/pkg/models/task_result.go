package models

type InsertOneResult struct {
	Acknowledged bool `json:"acknowledged" bson:"acknowledged"`
	InsertedID   any  `json:"insertedId" bson:"insertedId"`
}

type InsertManyResult struct {
	Acknowledged  bool  `json:"acknowledged" bson:"acknowledged"`
	InsertedIDs   []any `json:"insertedIds" bson:"insertedIds"`
	InsertedCount int64 `json:"insertedCount" bson:"insertedCount"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged" bson:"acknowledged"`
	DeletedCount int64 `json:"deletedCount" bson:"deletedCount"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged" bson:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount" bson:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount" bson:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount" bson:"upsertedCount"`
	UpsertedID    any   `json:"upsertedId,omitempty" bson:"upsertedId,omitempty"`
}

// CreateCollectionResult reports Created=false when an "already exists"
// failure was suppressed by failSilently.
type CreateCollectionResult struct {
	Collection string `json:"collection" bson:"collection"`
	Created    bool   `json:"created" bson:"created"`
}

// DropCollectionResult reports Dropped=false when a "does not exist" failure
// was suppressed by failSilently.
type DropCollectionResult struct {
	Collection string `json:"collection" bson:"collection"`
	Dropped    bool   `json:"dropped" bson:"dropped"`
}
