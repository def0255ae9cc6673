package handlers

import (
	"github.com/gorilla/schema"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/repository"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type CreateTableDTO struct {
	Width     int     `schema:"width,required"`
	Height    int     `schema:"height,required"`
	MineCount int     `schema:"mine_count,required"`
	Seed      *uint64 `schema:"seed"`
}

func ParseCreateTableDTO(src map[string][]string) (CreateTableDTO, error) {
	var dto CreateTableDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

func (d CreateTableDTO) Params() engine.GameParams {
	return engine.GameParams{
		Width:     d.Width,
		Height:    d.Height,
		MineCount: d.MineCount,
		Seed:      d.Seed,
	}
}

type HighscoresDTO struct {
	Width     *int `schema:"width"`
	Height    *int `schema:"height"`
	MineCount *int `schema:"mine_count"`
	Limit     int  `schema:"limit"`
}

func ParseHighscoresDTO(src map[string][]string) (HighscoresDTO, error) {
	var dto HighscoresDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

func (d HighscoresDTO) Filter() repository.HighscoreFilter {
	return repository.HighscoreFilter{
		Width:     d.Width,
		Height:    d.Height,
		MineCount: d.MineCount,
		Limit:     d.Limit,
	}
}

type TableDTO struct {
	TableID string          `json:"table_id"`
	State   engine.Snapshot `json:"state"`
}

type CommandResultDTO struct {
	OK    bool            `json:"ok"`
	State engine.Snapshot `json:"state"`
}

// Frame is one websocket message from the server.
type Frame struct {
	Type   string              `json:"type"`
	State  *engine.Snapshot    `json:"state,omitempty"`
	Change *engine.StateChange `json:"change,omitempty"`
	Error  string              `json:"error,omitempty"`
}

const (
	FrameState  = "state"
	FrameChange = "change"
	FrameError  = "error"
)
