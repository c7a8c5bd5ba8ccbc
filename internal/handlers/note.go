package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"aria/internal/speech"
)

// TakeNote appends one timestamped line to the notes file. Content may
// come inline ("take note buy milk") or from one follow-up capture.
// A sentinel or empty follow-up cancels without writing anything.
func (s *Set) TakeNote(ctx context.Context, cmd string) error {
	content := strings.TrimSpace(strings.Replace(cmd, "take note", "", 1))

	if content == "" {
		s.voice.Say("What note should I take?")
		s.log.Info("listening for note content")

		content = s.followUp(ctx)
		if speech.IsSentinel(content) || strings.TrimSpace(content) == "" {
			s.log.Warn("note cancelled", "reason", content)
			s.voice.Say("Okay, cancelling the note.")
			return nil
		}
		content = strings.TrimSpace(content)
	}

	s.voice.Say(fmt.Sprintf("Okay, noting down: '%s'", content))

	f, err := os.OpenFile(s.cfg.General.NotesFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.log.Error("open notes file failed", "file", s.cfg.General.NotesFile, "err", err)
		s.voice.Say("Sorry, I couldn't save the note.")
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", s.now().Format("2006-01-02 15:04:05"), content)
	if _, err := f.WriteString(line); err != nil {
		s.log.Error("write note failed", "err", err)
		s.voice.Say("Sorry, I couldn't save the note.")
		return err
	}

	s.log.Info("note appended", "file", s.cfg.General.NotesFile)
	return nil
}
