package a2a

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	PathAgentCard = "/.well-known/agent.json"
	PathRPC       = "/"
	PathTasksSend = "/tasks/send"
)

// Request is the closed set of inbound requests the endpoint understands.
// Adding a request kind means adding a variant here and an arm to every
// switch over Request.
type Request interface {
	isRequest()
}

// CardRequest asks for the discovery document.
type CardRequest struct{}

// SendTaskRequest submits a task. Envelope is false for the bare
// POST /tasks/send form, whose reply is the task itself rather than a
// JSON-RPC response.
type SendTaskRequest struct {
	ID       any
	Envelope bool
	Params   TaskSendParams
}

func (CardRequest) isRequest()      {}
func (*SendTaskRequest) isRequest() {}

// RouteError is a rejected request. ID carries the request id whenever the
// envelope was intact enough to recover it.
type RouteError struct {
	ID  any
	Err *Error
}

func (e *RouteError) Error() string { return e.Err.Error() }
func (e *RouteError) Unwrap() error { return e.Err }

// Router parses raw inbound payloads into Request variants. It fails closed:
// anything it does not recognize is rejected.
type Router struct {
	sendSchema *jsonschema.Schema
}

func NewRouter() (*Router, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(taskSendSchema))
	if err != nil {
		return nil, fmt.Errorf("a2a: parsing tasks/send schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(taskSendSchemaID, doc); err != nil {
		return nil, fmt.Errorf("a2a: adding tasks/send schema: %w", err)
	}
	schema, err := c.Compile(taskSendSchemaID)
	if err != nil {
		return nil, fmt.Errorf("a2a: compiling tasks/send schema: %w", err)
	}
	return &Router{sendSchema: schema}, nil
}

// Route matches an HTTP method, path and body against the known variants.
func (r *Router) Route(method, path string, body []byte) (Request, error) {
	switch {
	case method == http.MethodGet && path == PathAgentCard:
		return CardRequest{}, nil
	case method == http.MethodPost && path == PathRPC:
		return r.routeRPC(body)
	case method == http.MethodPost && path == PathTasksSend:
		return r.routeBare(body)
	default:
		return nil, &RouteError{Err: ErrMethodNotFound.WithMessage(fmt.Sprintf("no route for %s %s", method, path))}
	}
}

func (r *Router) routeRPC(body []byte) (Request, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, &RouteError{Err: ErrParse.WithData(err.Error())}
	}
	env, ok := doc.(map[string]any)
	if !ok {
		return nil, &RouteError{Err: ErrInvalidRequest.WithMessage("request must be a JSON object")}
	}

	id := env["id"]
	if !validID(id) {
		return nil, &RouteError{Err: ErrInvalidRequest.WithMessage("id must be a string, number or null")}
	}
	if v, ok := env["jsonrpc"]; ok && v != JSONRPCVersion {
		return nil, &RouteError{ID: id, Err: ErrInvalidRequest.WithMessage("invalid jsonrpc version")}
	}
	raw, ok := env["method"]
	if !ok {
		return nil, &RouteError{ID: id, Err: ErrInvalidRequest.WithMessage("missing method")}
	}
	method, ok := raw.(string)
	if !ok {
		return nil, &RouteError{ID: id, Err: ErrInvalidRequest.WithMessage("method must be a string")}
	}

	switch method {
	case MethodTasksSend:
		params, perr := r.sendParams(env["params"])
		if perr != nil {
			return nil, &RouteError{ID: id, Err: perr}
		}
		return &SendTaskRequest{ID: id, Envelope: true, Params: params}, nil
	default:
		return nil, &RouteError{ID: id, Err: ErrMethodNotFound.WithMessage(fmt.Sprintf("method %q is not supported", method))}
	}
}

func (r *Router) routeBare(body []byte) (Request, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, &RouteError{Err: ErrParse.WithData(err.Error())}
	}
	params, perr := r.sendParams(doc)
	if perr != nil {
		return nil, &RouteError{Err: perr}
	}
	return &SendTaskRequest{Params: params}, nil
}

func (r *Router) sendParams(raw any) (TaskSendParams, *Error) {
	var p TaskSendParams
	if raw == nil {
		return p, ErrInvalidParams.WithMessage("missing params")
	}
	if err := r.sendSchema.Validate(raw); err != nil {
		return p, ErrInvalidParams.WithData(schemaDetail(err))
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return p, ErrInvalidParams.WithData(err.Error())
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, ErrInvalidParams.WithData(err.Error())
	}
	if err := p.Validate(); err != nil {
		return TaskSendParams{}, ToError(err)
	}
	return p, nil
}

// decodeDocument parses exactly one JSON value, keeping numbers exact.
func decodeDocument(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return doc, nil
}

func schemaDetail(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return strings.TrimSpace(ve.Error())
	}
	return err.Error()
}
