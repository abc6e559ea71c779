package bus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/internal/classify"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Action names the operation a message asks for.
type Action string

const (
	ActionGetCredential      Action = "getCredential"
	ActionGetProvider        Action = "getProvider"
	ActionSolve              Action = "solve"
	ActionSolveFromSelection Action = "solveFromSelection"
	ActionCallCustomEndpoint Action = "callCustomEndpoint"
)

// ErrMalformedEnvelope is returned when a message cannot be decoded.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Message is a request envelope. On the wire the payload's fields sit next
// to the action: {"action": "...", ...payload}.
type Message struct {
	Action  Action
	Payload json.RawMessage
}

// NewMessage builds a message whose payload is v marshalled as a JSON object.
// A nil v yields an empty payload.
func NewMessage(action Action, v any) (Message, error) {
	msg := Message{Action: action}
	if v == nil {
		return msg, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", action, err)
	}
	if !gjson.ParseBytes(b).IsObject() {
		return Message{}, fmt.Errorf("%s payload must be an object: %w", action, ErrMalformedEnvelope)
	}
	msg.Payload = b
	return msg, nil
}

// MarshalJSON flattens the payload into the envelope.
func (m Message) MarshalJSON() ([]byte, error) {
	base := []byte(m.Payload)
	if len(base) == 0 {
		base = []byte("{}")
	}
	return sjson.SetBytes(base, "action", string(m.Action))
}

// UnmarshalJSON splits the action from the payload fields.
func (m *Message) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return ErrMalformedEnvelope
	}
	action := gjson.GetBytes(data, "action")
	if action.Type != gjson.String || action.Str == "" {
		return fmt.Errorf("missing action: %w", ErrMalformedEnvelope)
	}
	payload, err := sjson.DeleteBytes(data, "action")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	m.Action = Action(action.Str)
	m.Payload = payload
	return nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return nil
}

// Response is the reply envelope. Kind is set on failures so the caller
// does not have to reclassify the message text.
type Response struct {
	Success bool                 `json:"success"`
	Result  json.RawMessage      `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
	Kind    quizsolver.ErrorKind `json:"kind,omitempty"`
}

// OK builds a successful response carrying v.
func OK(v any) Response {
	if v == nil {
		return Response{Success: true}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Fail(quizsolver.NewError(quizsolver.KindUnknown, "", err))
	}
	return Response{Success: true, Result: b}
}

// Fail builds a failed response from err.
func Fail(err error) Response {
	e := classify.Error(err)
	if e == nil {
		e = quizsolver.NewError(quizsolver.KindUnknown, "", nil)
	}
	return Response{Error: e.Msg, Kind: e.Kind}
}

// Decode unmarshals the result into v.
func (r Response) Decode(v any) error {
	if len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Err returns nil for a successful response and the classified failure
// otherwise.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	kind := r.Kind
	if kind == "" {
		kind = classify.Message(r.Error).Kind
	}
	return quizsolver.NewError(kind, r.Error, nil)
}
