// Package records turns finished games into stored records.
package records

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/repository"
)

const DefaultTimeout = 5 * time.Second

// Store is the part of [repository.Queries] a Recorder writes to.
type Store interface {
	CreateRecord(ctx context.Context, p repository.CreateRecordParams) (*repository.Record, error)
}

type Recorder struct {
	log     logrus.FieldLogger
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func NewRecorder(log logrus.FieldLogger, store Store) *Recorder {
	return &Recorder{
		log:     log,
		store:   store,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
}

// Observer returns an observer for one table. It fits
// [lobby.ObserverFactory].
func (r *Recorder) Observer(tableID string) engine.Observer {
	var game *engine.SessionInfo
	return func(c engine.StateChange) error {
		switch {
		case c.Game != nil:
			game = c.Game
		case c.Reset:
			game = nil
		}
		if game == nil || c.PlayMode == nil || !c.PlayMode.Terminal() {
			return nil
		}

		var elapsed time.Duration
		if c.ElapsedTime != nil {
			elapsed = c.ElapsedTime.Duration
		}
		p := repository.CreateRecordParams{
			SessionID:  game.ID,
			TableID:    tableID,
			Width:      game.Width,
			Height:     game.Height,
			MineCount:  game.MineCount,
			Seed:       strconv.FormatUint(game.Seed, 10),
			Won:        *c.PlayMode == engine.Won,
			ElapsedMs:  elapsed.Milliseconds(),
			FinishedAt: r.now().UTC(),
		}
		game = nil
		return r.save(p)
	}
}

func (r *Recorder) save(p repository.CreateRecordParams) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	record, err := r.store.CreateRecord(ctx, p)
	if errors.Is(err, repository.ErrDuplicateRecord) {
		r.log.WithField("session", p.SessionID).Debug("record exists")
		return nil
	}
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"session": record.SessionID,
		"won":     record.Won,
		"elapsed": record.ElapsedMs,
	}).Info("game recorded")
	return nil
}
