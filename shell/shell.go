// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package shell reads commands line by line and dispatches them through the
// router. Each Shell owns one login session.
package shell

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-shellwords"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/router"
)

const Prompt = "vote> "

type Shell struct {
	router *router.Router
	in     io.Reader
	out    io.Writer
	prompt bool
	sess   models.Session
}

type Option func(*Shell)

// WithPrompt enables the input prompt
func WithPrompt(enabled bool) Option {
	return func(s *Shell) { s.prompt = enabled }
}

func New(r *router.Router, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{router: r, in: in, out: out}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsInteractive reports whether f is a terminal
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Tokenize splits a command line into words. Single or double quotes group
// words and backslash escapes the next character.
func Tokenize(line string) ([]string, error) {
	return shellwords.Parse(line)
}

// Run executes commands until quit, end of input, or ctx is done. It
// returns nil on quit or end of input and ctx.Err() on cancellation.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	s.printPrompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return ctx.Err()
				}
			}
			if s.Execute(line) {
				return nil
			}
			s.printPrompt()
		}
	}
}

// Execute runs one command line and reports whether the shell should exit
func (s *Shell) Execute(line string) (quit bool) {
	tokens, err := Tokenize(line)
	if err != nil {
		slog.Warn("unparsable command line", "error", err)
		middleware.ErrorResponse(s.out, middleware.KindUsage, "unbalanced quotes")
		return false
	}
	if len(tokens) == 0 {
		return false
	}

	switch tokens[0] {
	case "quit", "exit":
		middleware.TextResponse(s.out, "Exiting...")
		return true
	}

	s.router.Dispatch(s.out, &s.sess, tokens)
	return false
}

// Session returns the current login state
func (s *Shell) Session() models.Session {
	return s.sess
}

func (s *Shell) printPrompt() {
	if !s.prompt {
		return
	}
	label := Prompt
	switch {
	case s.sess.Admin:
		label = "admin " + Prompt
	case s.sess.VoterID != "":
		label = s.sess.VoterID + " " + Prompt
	}
	io.WriteString(s.out, label)
}
