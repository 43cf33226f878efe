package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bulwark/core"
)

// The budget of one search. A zero Time means no time limit and a zero
// Depth means searching up to MaxPly-1.
type Limits struct {
	Time  time.Duration
	Depth int
}

// The result of the deepest completed iteration.
type Result struct {
	BestMove core.Move
	Score    int
	PV       []core.Move
	Nodes    uint64
	Depth    int
	Elapsed  time.Duration
}

// Reported after every completed iteration of a search.
type Iteration struct {
	Depth    int
	Score    int
	Nodes    uint64
	Elapsed  time.Duration
	HashFull int
	PV       PVLine
}

// This object holds all the state of a search: the position, the tables,
// and the move ordering heuristics. Tables and heuristics survive from one
// search to the next. A Searcher must not be used by more than one
// goroutine at a time, except for Stop.
type Searcher struct {
	pos     Position
	eval    Evaluator
	opts    Options
	policy  PruningPolicy
	tt      *TranspositionTable
	qtt     *TranspositionTable
	orderer *MoveOrderer
	logger  zerolog.Logger
	report  func(Iteration)

	moveLists [MaxPly + 1]core.MoveList

	nodes       uint64
	ctx         context.Context
	deadline    time.Time
	enforceStop bool
	stopped     bool
	stopFlag    atomic.Bool

	lastRootKey uint64
	hasRootKey  bool
}

func NewSearcher(pos Position, opts Options) (*Searcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tt, err := NewTranspositionTable(opts.HashSizeMB)
	if err != nil {
		return nil, err
	}
	qtt, err := NewTranspositionTable(opts.QuiescenceHashSizeMB)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		pos:     pos,
		eval:    StaticEvaluator{},
		opts:    opts,
		tt:      tt,
		qtt:     qtt,
		orderer: NewMoveOrderer(),
		logger:  log.Logger,
		ctx:     context.Background(),
	}
	s.policy = NewPruningPolicy(&s.opts)
	return s, nil
}

func (s *Searcher) SetEvaluator(eval Evaluator)        { s.eval = eval }
func (s *Searcher) SetReporter(report func(Iteration)) { s.report = report }
func (s *Searcher) SetLogger(logger zerolog.Logger)    { s.logger = logger }
func (s *Searcher) Options() Options                   { return s.opts }
func (s *Searcher) Position() Position                 { return s.pos }

// Search a different position. The tables are kept.
func (s *Searcher) SetPosition(pos Position) {
	s.pos = pos
}

// Replace the options, resizing the tables if their sizes changed. Invalid
// options are rejected and the old ones stay in force.
func (s *Searcher) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.HashSizeMB != s.opts.HashSizeMB {
		if err := s.tt.Resize(opts.HashSizeMB); err != nil {
			return err
		}
	}
	if opts.QuiescenceHashSizeMB != s.opts.QuiescenceHashSizeMB {
		if err := s.qtt.Resize(opts.QuiescenceHashSizeMB); err != nil {
			return err
		}
	}
	s.opts = opts
	return nil
}

// Forget everything learned in earlier searches, as for a new game.
func (s *Searcher) Clear() {
	s.tt.Clear()
	s.qtt.Clear()
	s.orderer.Clear()
	s.hasRootKey = false
}

// Ask a running search to finish. Safe to call from any goroutine.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Find the best move by iterative deepening, one full-window search per
// depth, until the depth limit, the time limit, or the context runs out.
// The first depth always runs to completion, so a legal move is returned
// whenever there is one. A depth interrupted by the budget is thrown away.
func (s *Searcher) Search(ctx context.Context, limits Limits) (Result, error) {
	if err := s.opts.Validate(); err != nil {
		return Result{}, err
	}
	if limits.Depth < 0 || limits.Time < 0 {
		return Result{}, fmt.Errorf("%w: negative search limits", ErrInvalidOptions)
	}

	start := time.Now()
	logger := s.logger.With().Str("search", uuid.NewString()).Logger()

	maxDepth := limits.Depth
	if maxDepth == 0 || maxDepth >= MaxPly {
		maxDepth = MaxPly - 1
	}
	s.ctx = ctx
	s.deadline = time.Time{}
	if limits.Time > 0 {
		s.deadline = start.Add(limits.Time)
	}
	s.stopFlag.Store(false)
	s.stopped = false
	s.enforceStop = false
	s.nodes = 0

	rootKey := s.pos.Hash()
	if !s.hasRootKey || rootKey != s.lastRootKey {
		s.orderer.ClearKillers()
		s.orderer.ClearPV()
	}
	s.lastRootKey, s.hasRootKey = rootKey, true
	s.orderer.AgeHistory()
	s.tt.NewSearch()
	s.qtt.NewSearch()

	var rootMoves core.MoveList
	s.pos.GenLegalMoves(&rootMoves)
	if rootMoves.Count == 0 {
		score := DrawScore
		if s.pos.InCheck() {
			score = MatedIn(0)
		}
		logger.Info().Int("score", score).Msg("no-legal-moves")
		return Result{BestMove: core.NullMove, Score: score, Elapsed: time.Since(start)}, nil
	}

	logger.Debug().Int("max-depth", maxDepth).Dur("time", limits.Time).Msg("search-start")

	var result Result
	for depth := 1; depth <= maxDepth; depth++ {
		s.enforceStop = depth > 1

		var pv PVLine
		score := s.negamax(depth, 0, -Infinity, Infinity, false, true, &pv)
		if s.stopped {
			logger.Debug().Int("depth", depth).Msg("depth-interrupted")
			break
		}

		result = Result{
			BestMove: pv.GetPVMove(),
			Score:    score,
			PV:       pv.Copy().Moves,
			Nodes:    s.nodes,
			Depth:    depth,
			Elapsed:  time.Since(start),
		}
		for ply, move := range pv.Moves {
			s.orderer.RecordPV(ply, move)
		}

		logger.Debug().
			Int("depth", depth).
			Int("score", score).
			Uint64("nodes", s.nodes).
			Str("pv", pv.String()).
			Msg("depth-complete")
		if s.report != nil {
			s.report(Iteration{
				Depth:    depth,
				Score:    score,
				Nodes:    s.nodes,
				Elapsed:  result.Elapsed,
				HashFull: s.tt.HashFull(),
				PV:       pv.Copy(),
			})
		}

		if score >= MateBound && MateScore-score <= depth {
			break
		}
		s.enforceStop = true
		if s.pollStop(); s.stopped {
			break
		}
	}

	stats := s.tt.Stats()
	logger.Info().
		Str("move", result.BestMove.String()).
		Int("score", result.Score).
		Int("depth", result.Depth).
		Uint64("nodes", result.Nodes).
		Dur("elapsed", result.Elapsed).
		Uint64("tt-hits", stats.Hits).
		Uint64("tt-collisions", stats.Collisions).
		Msg("search-done")
	return result, nil
}

// Check the stop conditions. Only called every few thousand nodes and
// before the moves of the plies nearest the root, since reading the clock
// isn't free.
func (s *Searcher) pollStop() {
	if !s.enforceStop || s.stopped {
		return
	}
	if s.stopFlag.Load() {
		s.stopped = true
		return
	}
	select {
	case <-s.ctx.Done():
		s.stopped = true
		return
	default:
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		s.stopped = true
	}
}

func (s *Searcher) countNode() {
	s.nodes++
	if s.nodes&2047 == 0 {
		s.pollStop()
	}
}

func (s *Searcher) evaluate() int {
	return s.eval.Evaluate(s.pos)
}
