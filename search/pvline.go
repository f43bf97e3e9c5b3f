package search

import (
	"fmt"
	"strings"

	"github.com/domino14/lineup/board"
)

// PVLine is the principal variation: the line of moves the selection
// followed from a node down to the leaf whose scores it kept.
// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []board.Cell
	// Slots holds the slot that played each move.
	Slots []int
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = pvLine.Moves[:0]
	pvLine.Slots = pvLine.Slots[:0]
}

// Update the principal variation line with a new best move played by slot,
// followed by the line below it.
func (pvLine *PVLine) Update(c board.Cell, slot int, newPVLine PVLine) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, c)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.Slots = append(pvLine.Slots, slot)
	pvLine.Slots = append(pvLine.Slots, newPVLine.Slots...)
}

// NLBString prints the line without line breaks.
func (pvLine PVLine) NLBString() string {
	var sb strings.Builder
	sb.WriteString("PV;")
	for i, c := range pvLine.Moves {
		fmt.Fprintf(&sb, " %d: %c%v;", i+1, board.SlotSymbol(pvLine.Slots[i]), c)
	}
	return sb.String()
}
