// Package console handles interactive terminal I/O and mirrors it to a
// session transcript.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// TranscriptLayout names transcript files by session start minute.
const TranscriptLayout = "2006-01-02_1504"

var (
	wrongStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	rightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// Console reads answers line by line. Everything written to the terminal is
// also written verbatim (without styling) to the transcript, together with
// the lines the user typed.
type Console struct {
	in         *bufio.Reader
	term       io.Writer
	transcript io.Writer
	color      bool
}

// New returns a Console. transcript may be nil.
func New(in io.Reader, terminal, transcript io.Writer, color bool) *Console {
	if transcript == nil {
		transcript = io.Discard
	}
	return &Console{
		in:         bufio.NewReader(in),
		term:       terminal,
		transcript: transcript,
		color:      color,
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// OpenTranscript creates a new transcript file in dir named after now.
func OpenTranscript(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	path := filepath.Join(dir, now.Format(TranscriptLayout)+".txt")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	return file, nil
}

// Printf writes a formatted message.
func (c *Console) Printf(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...), lipgloss.Style{}, false)
}

// Println writes a line.
func (c *Console) Println(args ...any) {
	c.write(fmt.Sprintln(args...), lipgloss.Style{}, false)
}

// Header writes an emphasized line.
func (c *Console) Header(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...)+"\n", headerStyle, true)
}

// Wrong writes a line marking a mistake.
func (c *Console) Wrong(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...)+"\n", wrongStyle, true)
}

// Right writes a line marking a correct answer.
func (c *Console) Right(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...)+"\n", rightStyle, true)
}

// ReadLine prints prompt and returns the next input line without its line
// terminator. It returns io.EOF once input is exhausted.
func (c *Console) ReadLine(prompt string) (string, error) {
	c.write(prompt, lipgloss.Style{}, false)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			c.echo("\n")
		}
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	c.echo(line + "\n")
	return line, nil
}

func (c *Console) write(text string, style lipgloss.Style, styled bool) {
	termText := text
	if styled && c.color {
		body := strings.TrimSuffix(text, "\n")
		termText = style.Render(body) + text[len(body):]
	}
	if _, err := io.WriteString(c.term, termText); err != nil {
		// Best-effort terminal output.
		_ = err
	}
	c.echo(text)
}

func (c *Console) echo(text string) {
	if _, err := io.WriteString(c.transcript, text); err != nil {
		// Best-effort transcript output.
		_ = err
	}
}
