package models

import (
	"errors"
	"fmt"
)

var ErrUnknownOperation = errors.New("unknown operation")

// Operation identifies one of the MongoDB tasks that can travel over the
// dispatch channel. The set is closed: handler and command tables are sized
// by NumOperations.
type Operation int

const (
	OperationAggregate Operation = iota
	OperationCreateCollection
	OperationDropCollection
	OperationInsertOne
	OperationInsertMany
	OperationDeleteOne
	OperationDeleteMany
	OperationFindOne
	OperationFindMany
	OperationUpdateOne
	OperationUpdateMany

	numOperations
)

const NumOperations = int(numOperations)

var operationNames = [...]string{
	OperationAggregate:        "aggregate",
	OperationCreateCollection: "createCollection",
	OperationDropCollection:   "dropCollection",
	OperationInsertOne:        "insertOne",
	OperationInsertMany:       "insertMany",
	OperationDeleteOne:        "deleteOne",
	OperationDeleteMany:       "deleteMany",
	OperationFindOne:          "findOne",
	OperationFindMany:         "findMany",
	OperationUpdateOne:        "updateOne",
	OperationUpdateMany:       "updateMany",
}

// fails to compile when an operation is added without a wire name
var _ [NumOperations]string = operationNames

func (o Operation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return operationNames[o]
}

func (o Operation) Valid() bool {
	return o >= 0 && o < numOperations
}

// ParseOperation maps a wire name such as "findOne" back to its Operation.
func ParseOperation(name string) (Operation, error) {
	for i, n := range operationNames {
		if n == name {
			return Operation(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// AllOperations returns every operation in declaration order.
func AllOperations() []Operation {
	ops := make([]Operation, 0, NumOperations)
	for i := 0; i < NumOperations; i++ {
		ops = append(ops, Operation(i))
	}
	return ops
}

// MarshalText lets operations appear by name in JSON envelopes and log attrs.
func (o Operation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(o))
	}
	return []byte(o.String()), nil
}

func (o *Operation) UnmarshalText(text []byte) error {
	op, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
