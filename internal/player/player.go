// Package player plays cached question audio through an external process.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Player plays an audio file to completion.
type Player interface {
	Play(ctx context.Context, audioRef string) error
}

// DefaultCommand is the audio player executable.
const DefaultCommand = "ffplay"

// DefaultArgs makes ffplay exit at end of file without opening a window.
var DefaultArgs = []string{"-autoexit", "-nodisp", "-loglevel", "quiet"}

// Command plays audio by running an external program with the file path
// appended to its arguments. Output of the program is discarded.
type Command struct {
	Name string
	Args []string
}

// NewCommand returns a Command, falling back to ffplay defaults.
func NewCommand(name string, args []string) *Command {
	if name == "" {
		name = DefaultCommand
		if args == nil {
			args = DefaultArgs
		}
	}
	return &Command{Name: name, Args: append([]string(nil), args...)}
}

// Play runs the player and blocks until it exits.
func (c *Command) Play(ctx context.Context, audioRef string) error {
	if _, err := os.Stat(audioRef); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("audio not found: %s", audioRef)
		}
		return fmt.Errorf("failed to stat audio: %w", err)
	}
	cmd := exec.CommandContext(ctx, c.Name, c.argv(audioRef)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to play %s: %w", audioRef, err)
	}
	return nil
}

func (c *Command) argv(audioRef string) []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Args...)
	return append(argv, audioRef)
}
