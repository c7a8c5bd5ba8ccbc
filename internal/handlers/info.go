package handlers

import (
	"context"
	"fmt"
	"strings"
)

func (s *Set) Greeting(ctx context.Context, cmd string) error {
	s.voice.Say(fmt.Sprintf("Hello %s!", s.cfg.General.UserName))
	return nil
}

func (s *Set) Status(ctx context.Context, cmd string) error {
	s.voice.Say("I'm operational and ready for commands.")
	return nil
}

func (s *Set) PersonalInfo(ctx context.Context, cmd string) error {
	g := s.cfg.General
	switch {
	case strings.Contains(cmd, "my name") || strings.Contains(cmd, "who am i"):
		s.voice.Say(fmt.Sprintf("You told me your name is %s.", g.UserName))
	case strings.Contains(cmd, "my hobby") || strings.Contains(cmd, "what do i like"):
		s.voice.Say(fmt.Sprintf("I believe your hobby is %s.", g.UserHobby))
	case strings.Contains(cmd, "made you") || strings.Contains(cmd, "created you") || strings.Contains(cmd, "developer"):
		s.voice.Say(fmt.Sprintf("I was created by %s.", g.DeveloperName))
	case strings.Contains(cmd, "your name"):
		s.voice.Say(fmt.Sprintf("My name is %s.", g.AssistantName))
	default:
		return s.Status(ctx, cmd)
	}
	return nil
}

func (s *Set) Time(ctx context.Context, cmd string) error {
	s.voice.Say(fmt.Sprintf("The current time is %s.", s.now().Format("3:04 PM")))
	return nil
}

func (s *Set) Date(ctx context.Context, cmd string) error {
	s.voice.Say(fmt.Sprintf("Today's date is %s.", s.now().Format("January 2, 2006")))
	return nil
}
