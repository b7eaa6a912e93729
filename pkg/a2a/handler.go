package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/igorsilveira/ticktock/pkg/telemetry"
)

const maxBodyBytes = 1 << 20

// Executor runs a validated task send.
type Executor interface {
	Execute(ctx context.Context, req *SendTaskRequest) (Task, error)
}

type Handler struct {
	router   chi.Router
	parser   *Router
	card     []byte
	executor Executor
	logger   *slog.Logger
}

type HandlerConfig struct {
	Card     *AgentCard
	Router   *Router
	Executor Executor
	Logger   *slog.Logger
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Executor == nil {
		return nil, errors.New("a2a: handler requires an executor")
	}
	card, err := EncodeAgentCard(cfg.Card)
	if err != nil {
		return nil, fmt.Errorf("a2a: encoding agent card: %w", err)
	}
	parser := cfg.Router
	if parser == nil {
		if parser, err = NewRouter(); err != nil {
			return nil, err
		}
	}
	h := &Handler{
		parser:   parser,
		card:     card,
		executor: cfg.Executor,
		logger:   cfg.Logger,
	}
	h.buildRouter()
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) buildRouter() {
	r := chi.NewRouter()
	r.Get(PathAgentCard, h.serve)
	r.Post(PathRPC, h.serve)
	r.Post(PathTasksSend, h.serve)
	r.NotFound(h.serve)
	r.MethodNotAllowed(h.serve)
	h.router = r
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var id any
	route := "rejected"

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger.Error("a2a handler panic",
				slog.Any("panic", rec),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			telemetry.Metrics.ErrorsTotal.WithLabelValues("a2a").Inc()
			h.writeError(w, route, http.StatusInternalServerError, id, ErrInternal)
		}
		telemetry.Metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, route, http.StatusBadRequest, nil, ErrParse.WithData(err.Error()))
		return
	}

	req, err := h.parser.Route(r.Method, r.URL.Path, body)
	if err != nil {
		var re *RouteError
		if !errors.As(err, &re) {
			re = &RouteError{Err: ToError(err)}
		}
		h.logger.Debug("a2a request rejected",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", re.Err.Code),
			slog.String("err", re.Err.Message),
		)
		h.writeError(w, route, HTTPStatus(PhaseParse, re.Err), re.ID, re.Err)
		return
	}

	switch req := req.(type) {
	case CardRequest:
		route = "agent_card"
		telemetry.Metrics.RequestsTotal.WithLabelValues(route, "ok").Inc()
		writeRaw(w, http.StatusOK, h.card)
	case *SendTaskRequest:
		route = MethodTasksSend
		id = req.ID
		h.sendTask(w, r, req)
	default:
		panic(fmt.Sprintf("a2a: unhandled request variant %T", req))
	}
}

func (h *Handler) sendTask(w http.ResponseWriter, r *http.Request, req *SendTaskRequest) {
	h.logger.Debug("a2a task received",
		slog.String("task_id", req.Params.ID),
		slog.String("session_id", req.Params.SessionID),
		slog.Bool("envelope", req.Envelope),
	)

	task, err := h.executor.Execute(r.Context(), req)
	if err != nil {
		rpcErr := ToError(err)
		status := HTTPStatus(PhaseExecute, rpcErr)
		if status >= http.StatusInternalServerError {
			h.logger.Error("a2a task failed",
				slog.String("task_id", req.Params.ID),
				slog.String("err", err.Error()),
			)
		}
		h.writeError(w, MethodTasksSend, status, req.ID, rpcErr)
		return
	}

	telemetry.Metrics.RequestsTotal.WithLabelValues(MethodTasksSend, "ok").Inc()
	if !req.Envelope {
		writeJSON(w, http.StatusOK, task)
		return
	}
	writeJSON(w, http.StatusOK, NewResponse(req.ID, task))
}

func (h *Handler) writeError(w http.ResponseWriter, route string, status int, id any, err *Error) {
	telemetry.Metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(err.Code)).Inc()
	writeJSON(w, status, NewErrorResponse(id, err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(NewErrorResponse(nil, ErrInternal))
		status = http.StatusInternalServerError
	}
	writeRaw(w, status, b)
}

func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
