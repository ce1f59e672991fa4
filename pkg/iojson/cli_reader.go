package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes a JSON document named by a string flag. The value "-"
// reads from stdin.
type FileReader[T any] struct {
	Name  string
	Usage string

	value string
	stdin io.Reader
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	name := fr.Name
	if name == "" {
		name = "file"
	}
	usage := fr.Usage
	if usage == "" {
		usage = "path to JSON file (- reads stdin)"
	}
	return &cli.StringFlag{
		Name:        name,
		Usage:       usage,
		Destination: &fr.value,
	}
}

// Provided reports whether the flag was given.
func (fr *FileReader[T]) Provided() bool {
	return fr.value != ""
}

func (fr *FileReader[T]) Read() (T, error) {
	var (
		input  T
		reader io.Reader
	)

	switch {
	case fr.value == "":
		return input, fmt.Errorf("no input provided")
	case fr.value == "-":
		if fr.stdin != nil {
			reader = fr.stdin
			break
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return input, fmt.Errorf("stdin is a terminal; pipe JSON input or pass a file path")
		}
		reader = os.Stdin
	default:
		f, err := os.Open(fr.value)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	}

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}
