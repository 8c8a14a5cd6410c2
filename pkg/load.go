package pkg

import (
	"fmt"
	"os"
	"strings"

	"github.com/chainreactors/logs"
)

var LogVerbose = logs.Warn - 2

// LoadTemplateFile reads a raw request skeleton. The whole file is read once
// before dispatch begins.
func LoadTemplateFile(filename, placeholder string) (*Template, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("load template, %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("load template, %s is empty", filename)
	}
	return NewTemplate(content, placeholder), nil
}

// LoadFileToSlice splits a wordlist into lines, trimming trailing whitespace
// only. Leading whitespace and empty lines are preserved, duplicates allowed;
// every line yields exactly one verdict downstream.
func LoadFileToSlice(filename string) ([]string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	// drop the artifact of a trailing newline, not an intentional empty line
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return lines, nil
}
