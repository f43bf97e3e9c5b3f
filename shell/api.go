package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/bot"
	"github.com/domino14/lineup/config"
	"github.com/domino14/lineup/heuristic"
	"github.com/domino14/lineup/search"
)

const remoteTimeout = 10 * time.Second

var errNoGame = errors.New("no game; use new or load first")

func (sc *ShellController) atoi(cmd *shellcmd, n int) ([]int, error) {
	if len(cmd.args) < n {
		return nil, fmt.Errorf("%s needs %d arguments", cmd.cmd, n)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(cmd.args[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (sc *ShellController) requireGame() error {
	if sc.game == nil {
		return errNoGame
	}
	return nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return usage()
	}
	return usageTopic(cmd.args[0])
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 3 {
		return nil, errors.New("usage: new <size> <line> <player> [player...]")
	}
	dims, err := sc.atoi(cmd, 2)
	if err != nil {
		return nil, err
	}
	var order []board.Player
	for _, a := range cmd.args[2:] {
		p, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		order = append(order, board.Player(p))
	}
	g, err := newGame(dims[0], dims[1], order)
	if err != nil {
		return nil, err
	}
	sc.game = g
	sc.lastResult = nil
	return sc.show(cmd)
}

func (sc *ShellController) place(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	v, err := sc.atoi(cmd, 3)
	if err != nil {
		return nil, err
	}
	if err := sc.game.place(board.Cell{X: v[0], Y: v[1]}, board.Player(v[2])); err != nil {
		return nil, err
	}
	return sc.show(cmd)
}

func (sc *ShellController) block(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	v, err := sc.atoi(cmd, 2)
	if err != nil {
		return nil, err
	}
	if err := sc.game.block(board.Cell{X: v[0], Y: v[1]}); err != nil {
		return nil, err
	}
	return sc.show(cmd)
}

func (sc *ShellController) unplace(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if _, err := sc.game.unplace(); err != nil {
		return nil, err
	}
	return sc.show(cmd)
}

func (sc *ShellController) player(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	if len(cmd.args) == 0 {
		return msg(fmt.Sprintf("player %d to move", sc.game.playerOnTurn())), nil
	}
	v, err := sc.atoi(cmd, 1)
	if err != nil {
		return nil, err
	}
	slot, ok := sc.game.pos.SlotOf(board.Player(v[0]))
	if !ok {
		return nil, fmt.Errorf("%w: %d", search.ErrPlayerNotInTurnOrder, v[0])
	}
	sc.game.onTurn = slot
	return msg(fmt.Sprintf("player %d to move", v[0])), nil
}

func (sc *ShellController) depth(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(strconv.Itoa(sc.maxDepth)), nil
	}
	v, err := sc.atoi(cmd, 1)
	if err != nil {
		return nil, err
	}
	if v[0] < 1 || v[0] > search.MaxSearchDepth {
		return nil, fmt.Errorf("%w: %d", search.ErrInvalidDepth, v[0])
	}
	sc.maxDepth = v[0]
	return msg("set depth to " + strconv.Itoa(v[0])), nil
}

func (sc *ShellController) setTime(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.maxTime.String()), nil
	}
	d, err := time.ParseDuration(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if d < 0 {
		return nil, fmt.Errorf("%w: %s", search.ErrInvalidTimeBudget, d)
	}
	sc.maxTime = d
	return msg("set time to " + d.String()), nil
}

func (sc *ShellController) setAlgorithm(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.algorithm + " (available: " + strings.Join(search.Names(), ", ") + ")"), nil
	}
	if _, err := search.New(cmd.args[0], heuristic.LinePotential{}); err != nil {
		return nil, err
	}
	sc.algorithm = cmd.args[0]
	sc.engine = nil
	return msg("set algorithm to " + sc.algorithm), nil
}

func (sc *ShellController) setHeuristic(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.heuristic + " (available: " + strings.Join(heuristic.Names(), ", ") + ")"), nil
	}
	spec := strings.Join(cmd.args, "")
	if _, err := heuristic.New(spec); err != nil {
		return nil, err
	}
	sc.heuristic = spec
	sc.engine = nil
	return msg("set heuristic to " + spec), nil
}

// load reads a PlayRequest from a YAML or JSON file. Depth and time in the
// file, if set, replace the shell's.
func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: load <file>")
	}
	data, err := os.ReadFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	req := &bot.PlayRequest{}
	if err := yaml.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", cmd.args[0], err)
	}
	g, err := gameFromRequest(req)
	if err != nil {
		return nil, err
	}
	sc.game = g
	sc.lastResult = nil
	if req.MaxDepth > 0 {
		sc.maxDepth = req.MaxDepth
	}
	if req.MaxTimeMs > 0 {
		sc.maxTime = time.Duration(req.MaxTimeMs) * time.Millisecond
	}
	return sc.show(cmd)
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(sc.game.pos.ToDisplayText())
	for _, s := range sc.game.pos.Stones() {
		if s.Completes {
			fmt.Fprintf(&sb, "player %d has a line through %v\n", sc.game.pos.Player(s.Slot), s.Cell)
			break
		}
	}
	fmt.Fprintf(&sb, "player %d to move (%c)", sc.game.playerOnTurn(), board.SlotSymbol(sc.game.onTurn))
	return msg(sb.String()), nil
}

func (sc *ShellController) ensureEngine() error {
	if sc.engine != nil {
		return nil
	}
	s := config.SearchConfig{
		Algorithm:         sc.algorithm,
		Heuristic:         sc.heuristic,
		MaxDepth:          sc.maxDepth,
		MaxTime:           sc.maxTime,
		EvalCacheFraction: sc.cfg.Search.EvalCacheFraction,
	}
	engine, err := s.NewEngine()
	if err != nil {
		return err
	}
	sc.engine = engine
	return nil
}

// search finds a move for the player on turn and plays it. With -play false
// the move is only shown.
func (sc *ShellController) search(cmd *shellcmd) (*Response, error) {
	if err := sc.requireGame(); err != nil {
		return nil, err
	}
	req := sc.game.playRequest(sc.maxDepth, sc.maxTime)
	var move board.Cell
	var sb strings.Builder
	if sc.remote != nil {
		resp, err := sc.remote.RequestMove(context.Background(), req)
		if err != nil {
			return nil, err
		}
		move = board.Cell{X: resp.X, Y: resp.Y}
		fmt.Fprintf(&sb, "remote bot plays %v\nscores: %v\npv: %v\n", move, resp.Scores, resp.PV)
	} else {
		if err := sc.ensureEngine(); err != nil {
			return nil, err
		}
		res, err := sc.engine.NextMove(context.Background(), req.SearchRequest(sc.maxDepth, sc.maxTime))
		if err != nil {
			return nil, err
		}
		sc.lastResult = res
		move = res.Move
		fmt.Fprintf(&sb, "player %d plays %v\nscores: %v\npv: %v\n", req.Player, move, res.Scores, res.PV)
		fmt.Fprintf(&sb, "%d leaves in %s\n", res.Stats.Leaves(), res.Stats.Elapsed)
	}
	if cmd.options["play"] != "false" {
		if err := sc.game.place(move, req.Player); err != nil {
			return nil, err
		}
		show, err := sc.show(cmd)
		if err != nil {
			return nil, err
		}
		sb.WriteString(show.message)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	if sc.lastResult == nil {
		return nil, errors.New("no local search has run yet")
	}
	var sb strings.Builder
	st := sc.lastResult.Stats
	sb.WriteString(st.String())
	if st.Leaves() > 0 {
		sb.WriteString("leaf latency (us):\n")
		if err := st.LatencyHistogram(&sb, 10, 40); err != nil {
			return nil, err
		}
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// setRemote sends searches to a bot over NATS instead of running them here.
func (sc *ShellController) setRemote(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		if sc.remote == nil {
			return msg("searching locally"), nil
		}
		return msg("searching remotely"), nil
	}
	if cmd.args[0] == "off" {
		sc.closeRemote()
		return msg("searching locally"), nil
	}
	subject := sc.cfg.Nats.Subject
	if cmd.args[0] != "on" {
		subject = cmd.args[0]
	}
	sc.closeRemote()
	nc, err := nats.Connect(sc.cfg.Nats.URL)
	if err != nil {
		return nil, err
	}
	sc.nc = nc
	sc.remote = bot.NewClient(nc, subject, remoteTimeout)
	log.Debug().Str("subject", subject).Msg("remote-on")
	return msg("searching remotely on " + subject), nil
}

func (sc *ShellController) closeRemote() {
	if sc.nc != nil {
		sc.nc.Close()
	}
	sc.nc = nil
	sc.remote = nil
}
