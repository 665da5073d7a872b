package message

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// Field names the relay owns on every outgoing message. Clients may send them
// but the relay always overwrites both.
const (
	FieldID        = "id"
	FieldTimestamp = "timestamp"
)

var ErrNotObject = errors.New("message: payload is not a JSON object")

// Envelope is one chat message in flight: arbitrary client fields plus the
// relay-assigned id and timestamp. Once encoded the payload is immutable.
type Envelope map[string]interface{}

// Decode parses raw as a JSON object. Arrays, scalars and null are rejected.
func Decode(raw []byte) (Envelope, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ErrNotObject
	}
	if m == nil {
		return nil, ErrNotObject
	}
	return Envelope(m), nil
}

// ID returns the relay-assigned id, or "" when absent or not a string.
func (e Envelope) ID() string {
	s, _ := e[FieldID].(string)
	return s
}

// Enrich mints a fresh id and stamps the current time, overwriting anything
// the client put in those two fields, then encodes the canonical payload.
func (e Envelope) Enrich(now time.Time) (string, []byte, error) {
	id := uuid.NewString()
	e[FieldID] = id
	e[FieldTimestamp] = now.UTC().Format(time.RFC3339)
	payload, err := json.Marshal(map[string]interface{}(e))
	if err != nil {
		return "", nil, err
	}
	return id, payload, nil
}

// PeekID pulls the id out of a raw record without handing back the decoded
// form; the bridge forwards raw payloads untouched.
func PeekID(raw []byte) (string, bool) {
	e, err := Decode(raw)
	if err != nil {
		return "", false
	}
	id := e.ID()
	return id, id != ""
}
