package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/lobby"
	"github.com/vancomm/sweeper/internal/middleware"
	"github.com/vancomm/sweeper/internal/protocol"
)

// maxCommandBody bounds POST /tables/{id}/commands.
const maxCommandBody = 64 << 10

type Tables struct {
	log   logrus.FieldLogger
	lobby *lobby.Lobby
}

func NewTables(log logrus.FieldLogger, l *lobby.Lobby) *Tables {
	return &Tables{log: log, lobby: l}
}

func (t Tables) table(w http.ResponseWriter, r *http.Request) (*engine.Engine, bool) {
	e, ok := t.lobby.Get(r.PathValue("id"))
	if !ok {
		sendJSONOrLog(w, t.logger(r), http.StatusNotFound, errorBody{"no such table"})
	}
	return e, ok
}

func (t Tables) logger(r *http.Request) logrus.FieldLogger {
	return middleware.Logger(r.Context(), t.log)
}

func (t Tables) Create(w http.ResponseWriter, r *http.Request) {
	log := t.logger(r)
	dto, err := ParseCreateTableDTO(r.URL.Query())
	if err != nil {
		sendJSONOrLog(w, log, http.StatusBadRequest, errorBody{err.Error()})
		return
	}

	id, e, err := t.lobby.Open(r.Context(), dto.Params())
	if err != nil {
		sendError(w, log, err)
		return
	}
	snap, err := e.State(r.Context())
	if err != nil {
		sendError(w, log, err)
		return
	}
	log.WithField("table", id).Debug("table created")
	sendJSONOrLog(w, log, http.StatusCreated, TableDTO{TableID: id, State: snap})
}

func (t Tables) Fetch(w http.ResponseWriter, r *http.Request) {
	e, ok := t.table(w, r)
	if !ok {
		return
	}
	snap, err := e.State(r.Context())
	if err != nil {
		sendError(w, t.logger(r), err)
		return
	}
	sendJSONOrLog(w, t.logger(r), http.StatusOK, TableDTO{TableID: r.PathValue("id"), State: snap})
}

// Command runs the command lines in the request body in order and stops
// at the first failure.
func (t Tables) Command(w http.ResponseWriter, r *http.Request) {
	log := t.logger(r)
	e, ok := t.table(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		sendJSONOrLog(w, log, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	cmds, err := protocol.ParseScript(string(body))
	if err != nil {
		sendError(w, log, err)
		return
	}
	if len(cmds) == 0 {
		sendJSONOrLog(w, log, http.StatusBadRequest, errorBody{"no commands"})
		return
	}
	for _, cmd := range cmds {
		if err := protocol.Execute(r.Context(), e, cmd); err != nil {
			sendError(w, log, fmt.Errorf("%s: %w", cmd, err))
			return
		}
	}
	snap, err := e.State(r.Context())
	if err != nil {
		sendError(w, log, err)
		return
	}
	sendJSONOrLog(w, log, http.StatusOK, CommandResultDTO{OK: true, State: snap})
}

func (t Tables) Delete(w http.ResponseWriter, r *http.Request) {
	if !t.lobby.Close(r.PathValue("id")) {
		sendJSONOrLog(w, t.logger(r), http.StatusNotFound, errorBody{"no such table"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// executeLines runs every line of a websocket message, reporting failures
// through fail. A g line sends a fresh state frame.
func executeLines(
	ctx context.Context,
	e *engine.Engine,
	text string,
	sendState func(engine.Snapshot) error,
	fail func(error) error,
) error {
	for _, line := range protocol.Lines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := protocol.Parse(line)
		if err != nil {
			if err := fail(err); err != nil {
				return err
			}
			continue
		}
		if cmd.Op == protocol.OpGet {
			snap, err := e.State(ctx)
			if err != nil {
				return err
			}
			if err := sendState(snap); err != nil {
				return err
			}
			continue
		}
		err = protocol.Execute(ctx, e, cmd)
		if errors.Is(err, engine.ErrClosed) {
			return err
		}
		if err != nil {
			if err := fail(fmt.Errorf("%s: %w", cmd, err)); err != nil {
				return err
			}
		}
	}
	return nil
}
