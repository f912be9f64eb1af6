package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

const payloadKey = "v"

// Payload carries an operation argument or result (pipeline, filter,
// document, documents, driver acknowledgement) between the command layer and
// the task handlers.
//
// In process the wrapped Go value is handed over as is. On the wire it is
// canonical MongoDB Extended JSON, so int64, double, ObjectId and date values
// keep their BSON type. Decoding accepts relaxed and plain JSON as well.
// Decoded documents come back as bson.D and arrays as bson.A.
type Payload struct {
	value any
}

func NewPayload(v any) Payload {
	return Payload{value: v}
}

func (p Payload) Value() any {
	return p.value
}

func (p Payload) IsNil() bool {
	return p.value == nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return p.marshalExtJSON(true)
}

// MarshalRelaxedJSON renders the value as relaxed Extended JSON for humans.
// Numbers lose their BSON width.
func (p Payload) MarshalRelaxedJSON() ([]byte, error) {
	return p.marshalExtJSON(false)
}

func (p Payload) marshalExtJSON(canonical bool) ([]byte, error) {
	if p.value == nil {
		return []byte("null"), nil
	}

	// Extended JSON needs a document at the top level, so the value is
	// wrapped and unwrapped again.
	data, err := bson.MarshalExtJSON(bson.D{{Key: payloadKey, Value: p.value}}, canonical, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload as extended json: %w", err)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unwrap payload: %w", err)
	}
	return wrapper[payloadKey], nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		p.value = nil
		return nil
	}

	wrapped := make([]byte, 0, len(trimmed)+len(payloadKey)+5)
	wrapped = append(wrapped, `{"`+payloadKey+`":`...)
	wrapped = append(wrapped, trimmed...)
	wrapped = append(wrapped, '}')

	var doc bson.D
	if err := bson.UnmarshalExtJSON(wrapped, false, &doc); err != nil {
		return fmt.Errorf("failed to decode extended json payload: %w", err)
	}
	if len(doc) != 1 {
		return fmt.Errorf("failed to decode extended json payload: unexpected shape")
	}
	p.value = doc[0].Value
	return nil
}

// Decode re-encodes the payload value through BSON into out, which must be a
// pointer. It normalises results regardless of the transport they came from.
func (p Payload) Decode(out any) error {
	return DecodeValue(p.value, out)
}

// DecodeValue re-encodes v through BSON into out.
func DecodeValue(v any, out any) error {
	raw, err := bson.Marshal(bson.D{{Key: payloadKey, Value: v}})
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	if err := bson.Raw(raw).Lookup(payloadKey).Unmarshal(out); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	return nil
}
