// Package fixtures loads `.lox` test programs whose expected output is
// embedded in `// expect: <text>` comments, per SPEC_FULL.md's test
// harness format. It is consumed by fixtures_test.go to run each program
// through the tree-walk evaluator and, for fixtures under testdata/dual,
// the bytecode VM as well, asserting both produce the same captured
// output lines in source order.
package fixtures

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const expectMarker = "// expect: "

// Fixture is one loaded `.lox` program and the output lines it promises
// to print, in the order those `expect:` comments appear in the source.
type Fixture struct {
	Name     string
	Source   string
	Expected []string
}

// Load reads a single `.lox` fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	source := string(data)

	var expected []string
	scanner := bufio.NewScanner(strings.NewReader(source))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, expectMarker); idx != -1 {
			expected = append(expected, line[idx+len(expectMarker):])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Fixture{
		Name:     filepath.Base(path),
		Source:   source,
		Expected: expected,
	}, nil
}

// LoadDir reads every `.lox` file directly under dir.
func LoadDir(dir string) ([]*Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lox"))
	if err != nil {
		return nil, err
	}
	fixtures := make([]*Fixture, 0, len(paths))
	for _, path := range paths {
		fixture, err := Load(path)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}
