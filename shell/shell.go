// Package shell is an interactive front end for setting up positions and
// running searches on them.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/lineup/bot"
	"github.com/domino14/lineup/config"
	"github.com/domino14/lineup/search"
)

var (
	errNoData            = errors.New("no data in command")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errExit              = errors.New("exit")
)

type ShellController struct {
	l   *readline.Instance
	out io.Writer
	cfg *config.Config

	game *game

	algorithm string
	heuristic string
	maxDepth  int
	maxTime   time.Duration

	engine     search.Algorithm
	lastResult *search.Result

	nc     *nats.Conn
	remote *bot.Client
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func newController(cfg *config.Config, out io.Writer) *ShellController {
	return &ShellController{
		out:       out,
		cfg:       cfg,
		algorithm: cfg.Search.Algorithm,
		heuristic: cfg.Search.Heuristic,
		maxDepth:  cfg.Search.MaxDepth,
		maxTime:   cfg.Search.MaxTime,
	}
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := newController(cfg, os.Stdout)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mlineup>\033[0m ",
		HistoryFile:     "/tmp/lineup-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stdout()
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its positional arguments and
// its -key value options. Quoting follows shell rules.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for idx := 1; idx < len(fields); idx++ {
		f := fields[idx]
		// A lone "-" or a negative number is an argument.
		if len(f) > 1 && f[0] == '-' && (f[1] < '0' || f[1] > '9') {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[f[1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, f)
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// Execute runs one command line.
func (sc *ShellController) Execute(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "place":
		return sc.place(cmd)
	case "block":
		return sc.block(cmd)
	case "unplace":
		return sc.unplace(cmd)
	case "player":
		return sc.player(cmd)
	case "depth":
		return sc.depth(cmd)
	case "time":
		return sc.setTime(cmd)
	case "algorithm":
		return sc.setAlgorithm(cmd)
	case "heuristic":
		return sc.setHeuristic(cmd)
	case "load":
		return sc.load(cmd)
	case "show":
		return sc.show(cmd)
	case "go":
		return sc.search(cmd)
	case "stats":
		return sc.stats(cmd)
	case "remote":
		return sc.setRemote(cmd)
	}
	return nil, fmt.Errorf("command %v not found", cmd.cmd)
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	defer sc.closeRemote()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.Execute(line)
		if errors.Is(err, errExit) {
			sig <- syscall.SIGINT
			break
		} else if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
