package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/lobby"
	"github.com/vancomm/sweeper/internal/mines"
	"github.com/vancomm/sweeper/internal/protocol"
)

func SendJSON(w http.ResponseWriter, status int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	return err
}

func sendJSONOrLog(w http.ResponseWriter, log logrus.FieldLogger, status int, v any) {
	if err := SendJSON(w, status, v); err != nil {
		log.WithError(err).Error("unable to send response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("internal error")
		sendJSONOrLog(w, log, status, errorBody{http.StatusText(status)})
		return
	}
	sendJSONOrLog(w, log, status, errorBody{err.Error()})
}

// errorStatus maps engine and protocol errors to response codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, mines.ErrInvalidDimensions),
		errors.Is(err, mines.ErrInvalidMineCount),
		errors.Is(err, mines.ErrInsufficientCells),
		errors.Is(err, mines.ErrOutOfBounds),
		errors.Is(err, protocol.ErrUnknownCommand),
		errors.Is(err, protocol.ErrBadArguments):
		return http.StatusBadRequest
	case errors.Is(err, mines.ErrIllegalStateTransition):
		return http.StatusConflict
	case errors.Is(err, engine.ErrClosed):
		return http.StatusGone
	case errors.Is(err, lobby.ErrFull),
		errors.Is(err, lobby.ErrClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
