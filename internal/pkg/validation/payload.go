package validation

import (
	"math"
	"reflect"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	bsonDType    = reflect.TypeOf(bson.D{})
	bsonRawType  = reflect.TypeOf(bson.Raw{})
	bytesType    = reflect.TypeOf([]byte{})
	objectIDType = reflect.TypeOf(primitive.ObjectID{})
)

// ValidatePipeline rejects a missing pipeline or one that is not a list of stages.
func ValidatePipeline(pipeline any) error {
	if isMissing(pipeline) {
		return newError(log_messages.PipelineMustBeSpecified)
	}
	if !isArray(pipeline) {
		return newError(log_messages.PipelineMustBeValid)
	}
	return nil
}

// ValidateQuery rejects a missing query or one given as an array.
func ValidateQuery(query any) error {
	if isMissing(query) {
		return newError(log_messages.QueryMustBeSpecified)
	}
	if !isObject(query) {
		return newError(log_messages.QueryMustBeValid)
	}
	return nil
}

func ValidateDocument(document any) error {
	if isMissing(document) {
		return newError(log_messages.DocumentMustBeSpecified)
	}
	if !isObject(document) {
		return newError(log_messages.DocumentMustBeValid)
	}
	return nil
}

func ValidateDocuments(documents any) error {
	if isMissing(documents) {
		return newError(log_messages.DocumentsMustBeSpecified)
	}
	if !isArray(documents) {
		return newError(log_messages.DocumentsMustBeValid)
	}
	return nil
}

func ValidateFilter(filter any) error {
	if isMissing(filter) {
		return newError(log_messages.FilterMustBeSpecified)
	}
	if !isObject(filter) {
		return newError(log_messages.FilterMustBeValid)
	}
	return nil
}

// ValidateUpdate only checks the shape. Whether the document uses update
// operators is left to the server.
func ValidateUpdate(update any) error {
	if isMissing(update) {
		return newError(log_messages.UpdateMustBeSpecified)
	}
	if !isObject(update) {
		return newError(log_messages.UpdateMustBeValid)
	}
	return nil
}

func ValidateCollectionName(name string) error {
	if name == "" {
		return newError(log_messages.CollectionNameRequired)
	}
	return nil
}

// isMissing treats nil and the falsy scalars (false, zero, NaN, "") as an
// absent argument. Empty documents and empty lists are present.
func isMissing(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	case reflect.Float32, reflect.Float64:
		return rv.IsZero() || math.IsNaN(rv.Float())
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.IsZero()
	}
	return false
}

func indirect(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

// isArray reports whether v is a list such as bson.A, []bson.M or
// mongo.Pipeline. bson.D is an ordered document, not a list.
func isArray(v any) bool {
	rv := indirect(v)
	if !rv.IsValid() {
		return false
	}
	switch rv.Type() {
	case bsonDType, bsonRawType, bytesType, objectIDType:
		return false
	}
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

// isObject reports whether v encodes as a single BSON document.
func isObject(v any) bool {
	rv := indirect(v)
	if !rv.IsValid() {
		return false
	}
	switch rv.Type() {
	case bsonDType, bsonRawType:
		return true
	}
	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}
