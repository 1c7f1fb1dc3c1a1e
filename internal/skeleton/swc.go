package skeleton

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadSWC parses an SWC morphology: one node per line as
// "id type x y z radius parent", '#' starting a comment. A header comment of
// the form "# units: <unit>" sets the unit tag. Parent -1 marks a root.
func ReadSWC(r io.Reader) (*Skeleton, error) {
	var (
		nodes  []Node
		units  string
		lineNo int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if u, ok := parseUnitsHeader(line); ok {
				units = u
			}
			continue
		}
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		n, err := parseSWCLine(line)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: %w", lineNo, err)
		}
		nodes = append(nodes, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading swc: %w", err)
	}

	return New(nodes, units)
}

// LoadSWC reads an SWC file from disk.
func LoadSWC(path string) (*Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening swc file: %w", err)
	}
	defer f.Close()

	s, err := ReadSWC(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parseSWCLine(line string) (Node, error) {
	fields := strings.Fields(line)
	if len(fields) < 7 {
		return Node{}, fmt.Errorf("expected 7 columns, got %d", len(fields))
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Node{}, fmt.Errorf("parsing id %q: %w", fields[0], err)
	}
	typ, err := strconv.Atoi(fields[1])
	if err != nil {
		return Node{}, fmt.Errorf("parsing type %q: %w", fields[1], err)
	}

	var coords [4]float64
	for i := range coords {
		coords[i], err = strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return Node{}, fmt.Errorf("parsing column %d %q: %w", 3+i, fields[2+i], err)
		}
	}

	parent, err := strconv.ParseInt(fields[6], 10, 64)
	if err != nil {
		return Node{}, fmt.Errorf("parsing parent %q: %w", fields[6], err)
	}
	if parent < 0 {
		parent = NoParent
	}

	return Node{
		ID:       id,
		Type:     typ,
		X:        coords[0],
		Y:        coords[1],
		Z:        coords[2],
		Radius:   coords[3],
		ParentID: parent,
	}, nil
}

// parseUnitsHeader recognizes "# units: um" and "# UNITS um".
func parseUnitsHeader(line string) (string, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	lower := strings.ToLower(body)
	if !strings.HasPrefix(lower, "units") {
		return "", false
	}
	rest := strings.TrimSpace(body[len("units"):])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "="))
	if rest == "" {
		return "", false
	}
	return rest, true
}
