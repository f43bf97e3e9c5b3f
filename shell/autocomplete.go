package shell

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/lineup/heuristic"
	"github.com/domino14/lineup/search"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g. "-play")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"go": {
		Options: []string{"-play"},
	},
	"algorithm": {
		Args: search.Names(),
	},
	"heuristic": {
		Args: heuristic.Names(),
	},
	"remote": {
		Args: []string{"on", "off"},
	},
	"help": {
		Args: []string{"go", "heuristic", "load"},
	},
	"time": {
		Args: []string{"0", "500ms", "1s", "2s", "5s"},
	},
}

var commandNames = []string{
	"help", "new", "place", "block", "unplace", "player", "depth", "time",
	"algorithm", "heuristic", "load", "show", "go", "stats", "remote", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoComplete interface.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if lastCompleteField == "-play" {
			completions = boolValues
		}

		// place and player complete with the players of the current game.
		if completions == nil && c.sc.game != nil &&
			(cmdName == "player" || (cmdName == "place" && countArgs(fields, endsWithSpace) == 2)) {
			for _, p := range c.sc.game.turnOrder {
				completions = append(completions, strconv.Itoa(int(p)))
			}
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}

// countArgs is the number of arguments already complete on the line.
func countArgs(fields []string, endsWithSpace bool) int {
	n := len(fields) - 1
	if !endsWithSpace {
		n--
	}
	return n
}
