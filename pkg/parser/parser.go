// Package parser loads a board description from a text source into an
// initialized board.Board. The format is a single header line
// "<rows>x<cols>" followed by rows*cols lines, one picture token per
// line, row-major. A blank line where a token is expected is malformed.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cardgrid/memscramble/pkg/board"
)

// Load reads a board description from r and returns an initialized
// board.Board. Malformed input is always a hard error; there is no
// fallback board.
func Load(r io.Reader) (*board.Board, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading board header: %v", err)
		}
		return nil, fmt.Errorf("malformed board: empty input, expected a header line")
	}
	rows, cols, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	total := rows * cols
	pictures := make([]string, 0, total)
	for i := 0; i < total; i++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading board token %d: %v", i, err)
			}
			return nil, fmt.Errorf("malformed board: expected %d tokens, got %d", total, i)
		}
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			return nil, fmt.Errorf("malformed board: blank line at token %d, want a card token", i)
		}
		if strings.ContainsAny(tok, " \t") {
			return nil, fmt.Errorf("malformed board: token %q contains whitespace", tok)
		}
		pictures = append(pictures, tok)
	}
	if scanner.Scan() {
		return nil, fmt.Errorf("malformed board: expected %d tokens, got more", total)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading board: %v", err)
	}

	return board.NewBoard(rows, cols, pictures)
}

// LoadFile is a convenience wrapper around Load for server and CLI
// entrypoints that read a board description from disk.
func LoadFile(path string) (*board.Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening board file %s: %v", path, err)
	}
	defer f.Close()
	return Load(f)
}

func parseHeader(line string) (rows, cols int, err error) {
	parts := strings.SplitN(strings.TrimSpace(line), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed board: header %q is not of the form <rows>x<cols>", line)
	}
	rows, err = strconv.Atoi(parts[0])
	if err != nil || rows <= 0 {
		return 0, 0, fmt.Errorf("malformed board: invalid rows in header %q", line)
	}
	cols, err = strconv.Atoi(parts[1])
	if err != nil || cols <= 0 {
		return 0, 0, fmt.Errorf("malformed board: invalid cols in header %q", line)
	}
	return rows, cols, nil
}
