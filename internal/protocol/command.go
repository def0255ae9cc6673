// Package protocol implements the line-oriented command language spoken by
// the websocket transport and the replay tool.
//
//	n W H M [SEED]  new game
//	o X Y           reveal
//	c X Y           reveal surrounding
//	f X Y           flag
//	u X Y           unflag
//	m X Y           mark
//	r               reset
//	g               get state, changes nothing
package protocol

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vancomm/sweeper/internal/engine"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
)

type Op byte

const (
	OpGet    Op = 'g'
	OpNew    Op = 'n'
	OpOpen   Op = 'o'
	OpChord  Op = 'c'
	OpFlag   Op = 'f'
	OpUnflag Op = 'u'
	OpMark   Op = 'm'
	OpReset  Op = 'r'
)

// Maps known commands to the range of accepted argument counts
var commandNargs = map[Op][2]int{
	OpGet:    {0, 0},
	OpNew:    {3, 4},
	OpOpen:   {2, 2},
	OpChord:  {2, 2},
	OpFlag:   {2, 2},
	OpUnflag: {2, 2},
	OpMark:   {2, 2},
	OpReset:  {0, 0},
}

type Command struct {
	Op     Op
	X, Y   int
	Params engine.GameParams
}

func Parse(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 || len(parts[0]) != 1 {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
	op := Op(parts[0][0])
	nargs, ok := commandNargs[op]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, parts[0])
	}
	args := parts[1:]
	if len(args) < nargs[0] || len(args) > nargs[1] {
		return Command{}, fmt.Errorf(
			"%w: %q takes %s, got %d", ErrBadArguments, op, nargsString(nargs), len(args),
		)
	}

	cmd := Command{Op: op}
	switch op {
	case OpNew:
		nums, err := parseInts(args[:3])
		if err != nil {
			return Command{}, err
		}
		cmd.Params = engine.GameParams{Width: nums[0], Height: nums[1], MineCount: nums[2]}
		if len(args) == 4 {
			seed, err := strconv.ParseUint(args[3], 10, 64)
			if err != nil {
				return Command{}, fmt.Errorf("%w: seed must be an unsigned int", ErrBadArguments)
			}
			cmd.Params.Seed = &seed
		}
	case OpOpen, OpChord, OpFlag, OpUnflag, OpMark:
		nums, err := parseInts(args)
		if err != nil {
			return Command{}, err
		}
		cmd.X, cmd.Y = nums[0], nums[1]
	}
	return cmd, nil
}

func nargsString(n [2]int) string {
	if n[0] == n[1] {
		return strconv.Itoa(n[0]) + " arguments"
	}
	return fmt.Sprintf("%d to %d arguments", n[0], n[1])
}

func parseInts(args []string) ([]int, error) {
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d must be an int", ErrBadArguments, i+1)
		}
		nums[i] = n
	}
	return nums, nil
}

// ParseScript parses one command per line. Blank lines and lines starting
// with # are skipped.
func ParseScript(text string) ([]Command, error) {
	var cmds []Command
	for i, line := range Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (c Command) String() string {
	switch c.Op {
	case OpNew:
		s := fmt.Sprintf("n %d %d %d", c.Params.Width, c.Params.Height, c.Params.MineCount)
		if c.Params.Seed != nil {
			s += " " + strconv.FormatUint(*c.Params.Seed, 10)
		}
		return s
	case OpOpen, OpChord, OpFlag, OpUnflag, OpMark:
		return fmt.Sprintf("%c %d %d", c.Op, c.X, c.Y)
	default:
		return string(c.Op)
	}
}

// Player is the set of game operations a command can invoke.
// [engine.Engine] satisfies it.
type Player interface {
	InitGame(ctx context.Context, p engine.GameParams) error
	Reveal(ctx context.Context, x, y int) error
	RevealSurrounding(ctx context.Context, x, y int) error
	Flag(ctx context.Context, x, y int) error
	Unflag(ctx context.Context, x, y int) error
	Mark(ctx context.Context, x, y int) error
	Reset(ctx context.Context) error
}

var _ Player = (*engine.Engine)(nil)

func Execute(ctx context.Context, p Player, c Command) error {
	switch c.Op {
	case OpGet:
		return nil
	case OpNew:
		return p.InitGame(ctx, c.Params)
	case OpOpen:
		return p.Reveal(ctx, c.X, c.Y)
	case OpChord:
		return p.RevealSurrounding(ctx, c.X, c.Y)
	case OpFlag:
		return p.Flag(ctx, c.X, c.Y)
	case OpUnflag:
		return p.Unflag(ctx, c.X, c.Y)
	case OpMark:
		return p.Mark(ctx, c.X, c.Y)
	case OpReset:
		return p.Reset(ctx)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Op)
}
