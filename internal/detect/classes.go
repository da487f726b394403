package detect

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrClassMissing indicates the class of interest is absent from the loaded
// vocabulary. It is a startup configuration error: detection must never begin
// and discover the gap lazily per video.
var ErrClassMissing = errors.New("class of interest not present in vocabulary")

// LoadVocabulary reads the class names file (one label per line, blanks
// skipped) and validates that class appears in it.
func LoadVocabulary(path, class string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open classes file: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read classes file: %w", err)
	}

	found := false
	for _, name := range names {
		if name == class {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q not in %s", ErrClassMissing, class, path)
	}
	return names, nil
}
