package a2a

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	JSONRPCVersion  = "2.0"
	MethodTasksSend = "tasks/send"
)

// Response is a JSON-RPC response. Exactly one of Result and Error is set;
// ID is always emitted and is null when the request id was not recoverable.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

func NewResponse(id any, result any) *Response {
	if result == nil {
		result = json.RawMessage("null")
	}
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

func NewErrorResponse(id any, err *Error) *Response {
	if err == nil {
		err = ErrInternal
	}
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}

// UnmarshalJSON keeps the result as raw JSON so that re-encoding a decoded
// response reproduces it byte for byte. Numeric ids are kept as json.Number.
func (r *Response) UnmarshalJSON(data []byte) error {
	var aux struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *Error          `json:"error"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if (len(aux.Result) > 0) == (aux.Error != nil) {
		return errors.New("jsonrpc: response must carry exactly one of result or error")
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	*r = Response{JSONRPC: aux.JSONRPC, ID: id, Error: aux.Error}
	if len(aux.Result) > 0 {
		r.Result = aux.Result
	}
	return nil
}

// DecodeResult unmarshals the result of a decoded response into v.
func (r *Response) DecodeResult(v any) error {
	if r.Error != nil {
		return r.Error
	}
	raw, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("jsonrpc: encoding result: %w", err)
	}
	return json.Unmarshal(raw, v)
}

func decodeID(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var id any
	if err := dec.Decode(&id); err != nil {
		return nil, fmt.Errorf("jsonrpc: decoding id: %w", err)
	}
	if !validID(id) {
		return nil, fmt.Errorf("jsonrpc: id must be a string, number or null")
	}
	return id, nil
}

func validID(id any) bool {
	switch id.(type) {
	case nil, string, json.Number:
		return true
	}
	return false
}
