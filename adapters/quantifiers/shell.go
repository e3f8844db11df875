package quantifiers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"piquant/internal/script"
)

func comment(text string) string {
	return "# " + text
}

// ifMissingDir guards lines so they only run when dir does not exist yet
func ifMissingDir(dir string, lines ...string) []string {
	return script.If(fmt.Sprintf("[ ! -d %s ]", dir), lines...)
}

func pipe(commands ...string) string {
	return script.Pipe(commands...)
}

func threads(n int) int {
	if n <= 0 {
		return 8
	}
	return n
}

// readTable reads a whitespace-delimited table with a header row and returns
// idCol -> valueCol. Blank lines are skipped.
func readTable(r io.Reader, idCol, valueCol string) (map[string]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	idIdx, valueIdx := -1, -1
	table := make(map[string]float64)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if idIdx < 0 {
			for i, f := range fields {
				switch f {
				case idCol:
					idIdx = i
				case valueCol:
					valueIdx = i
				}
			}
			if idIdx < 0 || valueIdx < 0 {
				return nil, fmt.Errorf("header must contain columns %q and %q", idCol, valueCol)
			}
			continue
		}
		if len(fields) <= idIdx || len(fields) <= valueIdx {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(idIdx, valueIdx)+1, len(fields))
		}
		v, err := strconv.ParseFloat(fields[valueIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s value %q: %w", line, valueCol, fields[valueIdx], err)
		}
		table[fields[idIdx]] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("empty abundance file")
	}
	return table, nil
}
