// Package script writes the bash scripts that drive external tools inside a
// run directory.
package script

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Script accumulates sections of shell lines. Sections are separated by a
// blank line.
type Script struct {
	sections [][]string
}

func New() *Script {
	return &Script{sections: [][]string{{"#!/bin/bash"}}}
}

// Section appends a block of lines. Empty blocks are dropped.
func (s *Script) Section(lines ...string) *Script {
	if len(lines) == 0 {
		return s
	}
	s.sections = append(s.sections, append([]string(nil), lines...))
	return s
}

// Commented appends a section introduced by a comment line
func (s *Script) Commented(comment string, lines ...string) *Script {
	if len(lines) == 0 {
		return s
	}
	return s.Section(append([]string{"# " + comment}, lines...)...)
}

// String renders the script, ending with a newline
func (s *Script) String() string {
	var b strings.Builder
	for i, sec := range s.sections {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, l := range sec {
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// WriteFile writes the script and makes it executable by its owner
func (s *Script) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o744)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString(s.String()); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(path, 0o744)
}

// WriteLines writes a plain text file of lines
func WriteLines(dir, name string, lines []string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

// If wraps lines in an if block, indented by four spaces
func If(condition string, lines ...string) []string {
	out := make([]string, 0, len(lines)+2)
	out = append(out, "if "+condition+"; then")
	for _, l := range lines {
		out = append(out, "    "+l)
	}
	return append(out, "fi")
}

// Pipe joins commands into a pipeline
func Pipe(commands ...string) string {
	return strings.Join(commands, " | ")
}
