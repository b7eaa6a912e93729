// Package bridge runs validated task sends against a Responder and records
// the outcome in the session store.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/igorsilveira/ticktock/pkg/a2a"
	"github.com/igorsilveira/ticktock/pkg/audit"
	"github.com/igorsilveira/ticktock/pkg/responder"
	"github.com/igorsilveira/ticktock/pkg/session"
	"github.com/igorsilveira/ticktock/pkg/telemetry"
)

const DefaultUserID = "a2a_user"

type Config struct {
	Store         *session.Store
	Responder     responder.Responder
	ResponderName string
	AppName       string
	UserID        string
	Audit         *audit.Logger
	Logger        *slog.Logger
}

type Executor struct {
	store         *session.Store
	responder     responder.Responder
	responderName string
	appName       string
	userID        string
	audit         *audit.Logger
	logger        *slog.Logger
}

func New(cfg Config) (*Executor, error) {
	if cfg.Store == nil {
		return nil, errors.New("bridge: session store is required")
	}
	if cfg.Responder == nil {
		return nil, errors.New("bridge: responder is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID
	}
	if cfg.ResponderName == "" {
		cfg.ResponderName = fmt.Sprintf("%T", cfg.Responder)
	}
	return &Executor{
		store:         cfg.Store,
		responder:     cfg.Responder,
		responderName: cfg.ResponderName,
		appName:       cfg.AppName,
		userID:        cfg.UserID,
		audit:         cfg.Audit,
		logger:        cfg.Logger,
	}, nil
}

// Execute resolves the session and task for req, runs the responder and
// returns the resulting task. Errors are *a2a.Error values: InvalidTaskState
// when the task is already terminal, Internal for everything else.
func (e *Executor) Execute(ctx context.Context, req *a2a.SendTaskRequest) (task a2a.Task, err error) {
	p := req.Params
	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = p.ID
	}

	ctx, span := telemetry.StartTaskSpan(ctx, p.ID, sessionID, e.responderName)
	defer func() { telemetry.EndTaskSpan(span, string(task.Status.State), err) }()

	logger := telemetry.TaskLogger(ctx, e.logger, p.ID, sessionID)

	sess, created := e.store.GetOrCreateSession(e.appName, e.userID, sessionID)
	if created {
		telemetry.Metrics.ActiveSessions.Inc()
		e.record(ctx, audit.EventSessionNew, sessionID, "", nil)
	}

	t, created := sess.GetOrCreateTask(p.ID, p.Message)
	if created {
		e.record(ctx, audit.EventTaskNew, sessionID, p.ID, nil)
	}

	attempt, err := t.Begin(ctx)
	if err != nil {
		if errors.Is(err, session.ErrInvalidTaskState) {
			e.record(ctx, audit.EventTaskReject, sessionID, p.ID, err)
			return t.Snapshot(), a2a.ErrInvalidTaskState.WithMessage(err.Error())
		}
		return t.Snapshot(), a2a.ErrInternal.WithMessage(fmt.Sprintf("waiting for task %q: %v", p.ID, err))
	}

	// the query is the task's own user message, so a resend of an
	// unfinished task runs what was originally submitted
	snap := t.Snapshot()
	query := snap.Messages[0].Text()

	start := time.Now()
	replies, rerr := e.respond(ctx, query, sess)
	telemetry.Metrics.ResponderLatency.WithLabelValues(e.responderName).Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		if aerr := t.Abandon(attempt); aerr != nil {
			logger.Warn("abandoning task", slog.String("err", aerr.Error()))
		}
		logger.Info("task abandoned, caller went away")
		e.record(ctx, audit.EventTaskAbandon, sessionID, p.ID, ctx.Err())
		return t.Snapshot(), a2a.ErrInternal.WithMessage("task execution cancelled")
	}

	if rerr != nil {
		failed, ferr := t.Fail(attempt, rerr.Error())
		if ferr != nil {
			return failed, e.storeError(ferr)
		}
		telemetry.Metrics.TasksTotal.WithLabelValues(string(a2a.TaskStateFailed)).Inc()
		logger.Warn("responder failed", slog.String("err", rerr.Error()))
		e.record(ctx, audit.EventTaskFail, sessionID, p.ID, rerr)
		return failed, a2a.ErrInternal.WithMessage(fmt.Sprintf("responder failed: %v", rerr))
	}

	done, err := t.AppendReply(attempt, a2a.NewAgentMessage(replies...))
	if err != nil {
		return done, e.storeError(err)
	}
	telemetry.Metrics.TasksTotal.WithLabelValues(string(a2a.TaskStateCompleted)).Inc()
	logger.Debug("task completed", slog.Int("parts", len(done.Messages[len(done.Messages)-1].Parts)))
	e.record(ctx, audit.EventTaskDone, sessionID, p.ID, nil)
	return done, nil
}

// respond calls the responder and turns a panic into an error.
func (e *Executor) respond(ctx context.Context, query string, conv responder.Conversation) (replies []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Metrics.ErrorsTotal.WithLabelValues("responder").Inc()
			err = fmt.Errorf("responder panic: %v", rec)
		}
	}()
	return e.responder.Respond(ctx, query, conv)
}

func (e *Executor) storeError(err error) *a2a.Error {
	if errors.Is(err, session.ErrInvalidTaskState) {
		return a2a.ErrInvalidTaskState.WithMessage(err.Error())
	}
	telemetry.Metrics.ErrorsTotal.WithLabelValues("bridge").Inc()
	return a2a.ErrInternal.WithMessage(err.Error())
}

func (e *Executor) record(ctx context.Context, event, sessionID, taskID string, detail any) {
	if e.audit == nil {
		return
	}
	err := e.audit.Log(context.WithoutCancel(ctx), audit.Event{
		Type:      event,
		SessionID: sessionID,
		TaskID:    taskID,
		UserID:    e.userID,
		Detail:    detail,
	})
	if err != nil {
		e.logger.Warn("audit write failed", slog.String("event", event), slog.String("err", err.Error()))
	}
}
