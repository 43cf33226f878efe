package inter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"bulwark/core"
	"bulwark/engine"
)

const (
	EngineName   = "Bulwark 1.0"
	EngineAuthor = "The Bulwark authors"

	// With this much time or less left on the clock, a move never gets
	// more than TimePerMoveBullet, so the engine doesn't lose on time.
	TimeThreshHoldForBulletPlay = 180 * time.Second
	TimePerMoveBullet           = 2 * time.Second

	// Moves left in the game assumed when the GUI doesn't send movestogo.
	DefaultMovesToGo = 30

	// Kept off every budget for the GUI's overhead.
	MoveOverhead = 50 * time.Millisecond
)

var ErrBadCommand = errors.New("malformed command")

// The state of one UCI session: the current position, the searcher, and the
// search running in the background, if any. The searcher owns board while a
// search runs, so the d command prints the drawing taken when the position
// was set.
type uciEngine struct {
	board    *core.Board
	drawing  string
	searcher *engine.Searcher

	out   io.Writer
	outMu sync.Mutex

	searching sync.WaitGroup
	cancel    context.CancelFunc
}

func newUCIEngine(out io.Writer, opts engine.Options) (*uciEngine, error) {
	board, err := core.NewBoard(core.FENStartPosition)
	if err != nil {
		return nil, err
	}
	searcher, err := engine.NewSearcher(board, opts)
	if err != nil {
		return nil, err
	}

	e := &uciEngine{board: board, drawing: board.String(), searcher: searcher, out: out}
	searcher.SetReporter(e.reportIteration)
	searcher.SetLogger(log.With().Str("protocol", "uci").Logger())
	return e, nil
}

// Speak UCI over in and out until the GUI sends quit or in runs dry.
func RunUCIProtocol(in io.Reader, out io.Writer, opts engine.Options) error {
	e, err := newUCIEngine(out, opts)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !e.execute(scanner.Text()) {
			return nil
		}
	}
	e.stopSearch()
	return scanner.Err()
}

// Run one command. Returns false once the session should end.
func (e *uciEngine) execute(command string) bool {
	command = strings.TrimSpace(command)
	name, args, _ := strings.Cut(command, " ")
	args = strings.TrimSpace(args)

	var err error
	switch name {
	case "":
	case "uci":
		e.uciCommandResponse()
	case "isready":
		e.send("readyok")
	case "setoption":
		e.stopSearch()
		err = e.setoptionCommandResponse(args)
	case "ucinewgame":
		e.stopSearch()
		e.searcher.Clear()
		err = e.setPosition(core.FENStartPosition, nil)
	case "position":
		e.stopSearch()
		err = e.positionCommandResponse(args)
	case "go":
		e.stopSearch()
		err = e.goCommandResponse(args)
	case "stop":
		e.stopSearch()
	case "quit":
		e.stopSearch()
		return false
	case "d", "print":
		e.send(e.drawing)
	default:
		err = fmt.Errorf("%w: unknown command %q", ErrBadCommand, name)
	}

	if err != nil {
		log.Warn().Err(err).Str("command", command).Msg("uci-command-failed")
		e.send("info string " + err.Error())
	}
	return true
}

func (e *uciEngine) send(line string) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	fmt.Fprintln(e.out, line)
}

func (e *uciEngine) uciCommandResponse() {
	e.send("id name " + EngineName)
	e.send("id author " + EngineAuthor)
	opts := e.searcher.Options()
	for _, option := range uciOptions {
		e.send(option.declaration(&opts))
	}
	e.send("uciok")
}

func (e *uciEngine) setoptionCommandResponse(args string) error {
	name, value, err := parseSetOption(args)
	if err != nil {
		return err
	}
	if strings.EqualFold(name, "Clear Hash") {
		e.searcher.Clear()
		return nil
	}

	option, ok := findOption(name)
	if !ok {
		return fmt.Errorf("%w: no option named %q", ErrBadCommand, name)
	}
	opts := e.searcher.Options()
	if err := option.set(&opts, value); err != nil {
		return err
	}
	// Invalid combinations are refused and the old options stay.
	return e.searcher.SetOptions(opts)
}

// Split "name <name> value <value>". Names may contain spaces.
func parseSetOption(args string) (name, value string, err error) {
	rest, ok := strings.CutPrefix(args, "name ")
	if !ok {
		return "", "", fmt.Errorf("%w: setoption without a name", ErrBadCommand)
	}
	name, value, _ = strings.Cut(rest, " value ")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" {
		return "", "", fmt.Errorf("%w: setoption without a name", ErrBadCommand)
	}
	return name, value, nil
}

func (e *uciEngine) positionCommandResponse(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("%w: position needs startpos or fen", ErrBadCommand)
	}

	movesAt := len(fields)
	for i, field := range fields {
		if field == "moves" {
			movesAt = i
			break
		}
	}
	var moves []string
	if movesAt < len(fields) {
		moves = fields[movesAt+1:]
	}

	switch fields[0] {
	case "startpos":
		return e.setPosition(core.FENStartPosition, moves)
	case "fen":
		return e.setPosition(strings.Join(fields[1:movesAt], " "), moves)
	default:
		return fmt.Errorf("%w: position needs startpos or fen, got %q", ErrBadCommand, fields[0])
	}
}

// Load a position and play moves from it. The current position is only
// replaced once all of it parsed.
func (e *uciEngine) setPosition(fen string, moves []string) error {
	board, err := core.NewBoard(fen)
	if err != nil {
		return err
	}
	for _, moveAsString := range moves {
		move, err := core.ParseMove(board, moveAsString)
		if err != nil {
			return err
		}
		board.DoMove(move)
	}
	e.board = board
	e.drawing = board.String()
	e.searcher.SetPosition(board)
	return nil
}

// The arguments of a go command that matter to the search.
type goArgs struct {
	wtime, btime time.Duration
	winc, binc   time.Duration
	movesToGo    int
	moveTime     time.Duration
	depth        int
	infinite     bool
}

func parseGoArgs(args string) (goArgs, error) {
	var parsed goArgs
	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		if fields[i] == "infinite" {
			parsed.infinite = true
			continue
		}
		if fields[i] == "ponder" {
			continue
		}
		if i+1 >= len(fields) {
			return parsed, fmt.Errorf("%w: go %s needs a value", ErrBadCommand, fields[i])
		}
		value, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return parsed, fmt.Errorf("%w: go %s: %v", ErrBadCommand, fields[i], err)
		}
		ms := time.Duration(value) * time.Millisecond
		switch fields[i] {
		case "wtime":
			parsed.wtime = ms
		case "btime":
			parsed.btime = ms
		case "winc":
			parsed.winc = ms
		case "binc":
			parsed.binc = ms
		case "movestogo":
			parsed.movesToGo = value
		case "movetime":
			parsed.moveTime = ms
		case "depth":
			parsed.depth = value
		}
		i++
	}
	return parsed, nil
}

// Work out the search budget for the side to move.
func (args goArgs) limits(side core.Color) engine.Limits {
	limits := engine.Limits{Depth: min(args.depth, engine.MaxPly-1)}
	if args.infinite {
		return engine.Limits{Depth: limits.Depth}
	}
	if args.moveTime > 0 {
		limits.Time = max(args.moveTime-MoveOverhead, time.Millisecond)
		return limits
	}

	timeLeft, inc := args.wtime, args.winc
	if side == core.Black {
		timeLeft, inc = args.btime, args.binc
	}
	if timeLeft <= 0 {
		return limits
	}

	movesToGo := args.movesToGo
	if movesToGo <= 0 {
		movesToGo = DefaultMovesToGo
	}
	budget := timeLeft/time.Duration(movesToGo) + inc*3/4
	if timeLeft <= TimeThreshHoldForBulletPlay {
		budget = min(budget, TimePerMoveBullet)
	}
	budget = min(budget, timeLeft-MoveOverhead)
	limits.Time = max(budget, time.Millisecond)
	return limits
}

func (e *uciEngine) goCommandResponse(args string) error {
	parsed, err := parseGoArgs(args)
	if err != nil {
		return err
	}
	limits := parsed.limits(e.board.SideToMove())

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.searching.Add(1)
	go func() {
		defer e.searching.Done()
		defer cancel()
		result, err := e.searcher.Search(ctx, limits)
		if err != nil {
			log.Error().Err(err).Msg("search-failed")
			e.send("info string " + err.Error())
		}
		e.send("bestmove " + result.BestMove.String())
	}()
	return nil
}

// Stop the background search, if any, and wait for its bestmove.
func (e *uciEngine) stopSearch() {
	if e.cancel != nil {
		e.searcher.Stop()
		e.cancel()
	}
	e.searching.Wait()
	e.cancel = nil
}

func (e *uciEngine) reportIteration(it engine.Iteration) {
	ms := it.Elapsed.Milliseconds()
	nps := uint64(0)
	if it.Elapsed > 0 {
		nps = uint64(float64(it.Nodes) / it.Elapsed.Seconds())
	}
	e.send(fmt.Sprintf("info depth %d score %s nodes %d nps %d time %d hashfull %d pv %s",
		it.Depth, formatScore(it.Score), it.Nodes, nps, ms, it.HashFull, it.PV.String()))
}

func formatScore(score int) string {
	if engine.IsMateScore(score) {
		return fmt.Sprintf("mate %d", engine.MateDistance(score))
	}
	return fmt.Sprintf("cp %d", score)
}
