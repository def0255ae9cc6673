package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/mines"
	"github.com/vancomm/sweeper/internal/protocol"
)

// script is a replay file:
//
//	width: 9
//	height: 9
//	mine_count: 10
//	seed: 1
//	commands:
//	  - o 4 4
//	  - f 0 0
type script struct {
	engine.GameParams `yaml:",inline"`
	Commands          []string `yaml:"commands"`
}

func parseScript(in []byte) (*script, []protocol.Command, error) {
	var s script
	if err := yaml.UnmarshalStrict(in, &s); err != nil {
		return nil, nil, fmt.Errorf("invalid script: %w", err)
	}
	if s.Seed == nil {
		return nil, nil, fmt.Errorf("invalid script: seed is required")
	}
	cmds, err := protocol.ParseScript(strings.Join(s.Commands, "\n"))
	if err != nil {
		return nil, nil, err
	}
	return &s, cmds, nil
}

// replayEpoch is the fixed clock of a replay, so identical scripts print
// identical output.
var replayEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "replay SCRIPT",
		Short: "Run a seeded command script and print every state change as JSON",
		Long: `replay feeds the commands of a YAML script to a fresh engine and prints
each published state change as one JSON line. Rejected commands are
logged and skipped. The same script always produces the same output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s, cmds, err := parseScript(in)
			if err != nil {
				return err
			}
			return replay(cmd.Context(), opts.log, s, cmds, cmd.OutOrStdout(), dump)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the final board as YAML")
	return cmd
}

func replay(
	ctx context.Context,
	log logrus.FieldLogger,
	s *script,
	cmds []protocol.Command,
	out io.Writer,
	dump bool,
) error {
	n := 0
	e := engine.New(
		engine.WithLogger(log),
		engine.WithClock(func() time.Time { return replayEpoch }),
		engine.WithIDGenerator(func() string {
			n++
			return "replay-" + strconv.Itoa(n)
		}),
		engine.WithTickInterval(0),
	)

	var (
		mu     sync.Mutex
		enc    = json.NewEncoder(out)
		encErr error
	)
	ctx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	_, err := e.Subscribe(ctx, func(c engine.StateChange) error {
		mu.Lock()
		defer mu.Unlock()
		if encErr == nil {
			encErr = enc.Encode(c)
		}
		return encErr
	})
	if err != nil {
		cancel()
		return err
	}

	run := append([]protocol.Command{{Op: protocol.OpNew, Params: s.GameParams}}, cmds...)
	for i, c := range run {
		if err := protocol.Execute(ctx, e, c); err != nil {
			if i == 0 {
				cancel()
				<-errc
				return err
			}
			log.WithField("command", c.String()).WithError(err).Warn("command rejected")
		}
	}

	var snap engine.Snapshot
	if dump {
		snap, err = e.State(ctx)
	}
	cancel()
	if runErr := <-errc; runErr != nil {
		return runErr
	}
	if err != nil {
		return err
	}
	if encErr != nil {
		return encErr
	}
	if !dump || snap.Game == nil {
		return nil
	}
	b, err := mines.DumpRows(snap.Grid, snap.Game.Seed).Marshal()
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}
