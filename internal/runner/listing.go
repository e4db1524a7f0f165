package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"nix/pkg/bytecode"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("37")).Width(5).Align(lipgloss.Right)
	opStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	blockStyle  = opStyle.Bold(true)
	argStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// setColor switches lipgloss between the terminal's profile and plain text
func setColor(enabled bool) {
	if enabled {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// printListing writes pb one instruction per line, bodies indented
func printListing(w io.Writer, pb bytecode.Program) {
	fmt.Fprintln(w, headerStyle.Render("=== Program ==="))
	if len(pb) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No instructions."))
		return
	}

	depth := 0
	for i, tok := range pb {
		indent := depth
		switch tok.Op {
		case bytecode.OpEndIf, bytecode.OpEndWhile, bytecode.OpFuncRet,
			bytecode.OpEndMacro, bytecode.OpScopeExit:
			depth = max(depth-1, 0)
			indent = depth
		case bytecode.OpElse, bytecode.OpElif, bytecode.OpThen, bytecode.OpWhile:
			indent = max(depth-1, 0)
		}

		style := opStyle
		if tok.Op.Structural() {
			style = blockStyle
		}

		line := indexStyle.Render(fmt.Sprint(i)) + "  " + strings.Repeat("  ", indent) + style.Render(tok.Op.String())
		if arg := tok.OperandString(); arg != "" {
			line += " " + argStyle.Render(arg)
		}
		fmt.Fprintln(w, line)

		switch tok.Op {
		case bytecode.OpIf, bytecode.OpRunWhile, bytecode.OpFuncDef,
			bytecode.OpMacroDef, bytecode.OpScopeEnter:
			depth++
		}
	}

	fmt.Fprintln(w, headerStyle.Render("=== Output ==="))
}

// printErrors reports assembly errors under a header
func printErrors(w io.Writer, errs []string) {
	fmt.Fprintln(w, errStyle.Bold(true).Render("=== Assembly Errors ==="))
	for _, e := range errs {
		fmt.Fprintln(w, errStyle.Render(e))
	}
}
