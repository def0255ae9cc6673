package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/sweeper/internal/middleware"
	"github.com/vancomm/sweeper/internal/repository"
)

type HighscoreStore interface {
	GetHighscores(ctx context.Context, filter repository.HighscoreFilter) ([]repository.Highscore, error)
}

type Highscores struct {
	log   logrus.FieldLogger
	store HighscoreStore
}

func NewHighscores(log logrus.FieldLogger, store HighscoreStore) *Highscores {
	return &Highscores{log: log, store: store}
}

func (h Highscores) List(w http.ResponseWriter, r *http.Request) {
	log := middleware.Logger(r.Context(), h.log)
	dto, err := ParseHighscoresDTO(r.URL.Query())
	if err != nil {
		sendJSONOrLog(w, log, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	scores, err := h.store.GetHighscores(r.Context(), dto.Filter())
	if err != nil {
		log.WithError(err).Error("unable to fetch highscores")
		sendJSONOrLog(w, log, http.StatusInternalServerError, errorBody{"unable to fetch highscores"})
		return
	}
	if scores == nil {
		scores = []repository.Highscore{}
	}
	sendJSONOrLog(w, log, http.StatusOK, scores)
}
