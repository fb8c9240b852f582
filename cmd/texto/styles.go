package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Terminal palette.
var (
	colorMuted   = lipgloss.Color("#656d76")
	colorAccent  = lipgloss.Color("#0969da")
	colorError   = lipgloss.Color("#cf222e")
	colorSuccess = lipgloss.Color("#1a7f37")
)

var (
	senderStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
)

// printer writes command output, styling it only when w is a terminal.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, styled: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *printer) info(format string, args ...any) {
	p.println(p.render(dimStyle, fmt.Sprintf(format, args...)))
}

func (p *printer) success(format string, args ...any) {
	p.println(p.render(successStyle, fmt.Sprintf(format, args...)))
}

func (p *printer) failure(format string, args ...any) {
	p.println(p.render(errorStyle, fmt.Sprintf(format, args...)))
}

// message prints one pushed message as "sender > text".
func (p *printer) message(sender, text string) {
	p.println(p.render(senderStyle, sender+" >") + " " + text)
}
