package announce

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Speaker renders text audibly
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// CommandSpeaker runs a text-to-speech program with the text as last argument
type CommandSpeaker struct {
	name string
	args []string
}

// NewCommandSpeaker creates a speaker for e.g. espeak-ng or say
func NewCommandSpeaker(name string, args ...string) *CommandSpeaker {
	return &CommandSpeaker{name: name, args: args}
}

// Speak runs the program and waits for it to finish
func (c *CommandSpeaker) Speak(ctx context.Context, text string) error {
	args := append(append([]string{}, c.args...), text)
	out, err := exec.CommandContext(ctx, c.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", c.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// LogSpeaker writes announcements to the log
type LogSpeaker struct{}

// Speak logs the text
func (LogSpeaker) Speak(ctx context.Context, text string) error {
	slog.Info("Announcement", "text", text)
	return nil
}

// NewSpeaker maps a configured speaker name to an implementation:
// "log", "espeak" (espeak-ng), "say" (macOS) or any other program name.
func NewSpeaker(kind string) Speaker {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "log":
		return LogSpeaker{}
	case "espeak":
		return NewCommandSpeaker("espeak-ng")
	case "say":
		return NewCommandSpeaker("say")
	default:
		return NewCommandSpeaker(kind)
	}
}
