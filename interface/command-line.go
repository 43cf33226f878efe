package inter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"bulwark/core"
	"bulwark/engine"
)

// A basic program to play the engine from the command line. Moves are
// entered in coordinate notation (e2e4, e7e8q).
func RunCommandLineProtocol(in io.Reader, out io.Writer, opts engine.Options, limits engine.Limits) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Enter a fen string for the starting position (or startpos for the start position): ")
	input, err := readLine(reader)
	if err != nil {
		return err
	}
	fen := input
	if input == "startpos" || input == "" {
		fen = core.FENStartPosition
	}
	board, err := core.NewBoard(fen)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Are you white or black? ")
	input, err = readLine(reader)
	if err != nil {
		return err
	}
	playerToMove := (input == "white" && board.SideToMove() == core.White) ||
		(input == "black" && board.SideToMove() == core.Black)

	searcher, err := engine.NewSearcher(board, opts)
	if err != nil {
		return err
	}

	for {
		fmt.Fprintln(out, board)
		if over, result := gameOver(board); over {
			fmt.Fprintln(out, result)
			return nil
		}

		if playerToMove {
			fmt.Fprint(out, "Enter your move (in uci protocol formation)> ")
			input, err = readLine(reader)
			if err != nil {
				return err
			}
			if input == "quit" {
				return nil
			}
			move, err := core.ParseMove(board, input)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			board.DoMove(move)
			playerToMove = false
			continue
		}

		result, err := searcher.Search(context.Background(), limits)
		if err != nil {
			return err
		}
		log.Info().Str("move", result.BestMove.String()).Int("score", result.Score).Msg("engine-move")
		fmt.Fprintf(out, "Engine plays %s (%s)\n", result.BestMove, formatScore(result.Score))
		board.DoMove(result.BestMove)
		playerToMove = true
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func gameOver(board *core.Board) (bool, string) {
	var moves core.MoveList
	board.GenLegalMoves(&moves)
	switch {
	case moves.Count == 0 && board.InCheck():
		return true, fmt.Sprintf("Checkmate, %s wins", board.SideToMove().Other())
	case moves.Count == 0:
		return true, "Stalemate"
	case board.IsDraw():
		return true, "Draw"
	}
	return false, ""
}
