package board

import (
	"fmt"
	"strings"
)

// slotSymbols are used to draw stones; the first two slots get the familiar
// X and O.
const slotSymbols = "XOABCDEFGHIJKLMNPQRSTUVWYZ"

// SlotSymbol returns the character used to draw stones of a slot.
func SlotSymbol(slot int) byte {
	if slot < len(slotSymbols) {
		return slotSymbols[slot]
	}
	return '*'
}

// ToDisplayText renders the board with zero-based column and row numbers.
// Stones placed during the current search branch are not distinguished.
func (p *Position) ToDisplayText() string {
	var sb strings.Builder
	n := p.size
	sb.WriteString("\n    ")
	for x := 0; x < n; x++ {
		fmt.Fprintf(&sb, "%d ", x%10)
	}
	sb.WriteString("\n    " + strings.Repeat("-", n*2) + "\n")
	for y := 0; y < n; y++ {
		fmt.Fprintf(&sb, "%3d|", y)
		for x := 0; x < n; x++ {
			switch v := p.squares[y*n+x]; v {
			case Empty:
				sb.WriteByte('.')
			case Blocked:
				sb.WriteByte('#')
			default:
				sb.WriteByte(SlotSymbol(int(v)))
			}
			sb.WriteByte(' ')
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("    " + strings.Repeat("-", n*2) + "\n")
	for i, pl := range p.turnOrder {
		fmt.Fprintf(&sb, "%c = player %d\n", SlotSymbol(i), pl)
	}
	return sb.String()
}
