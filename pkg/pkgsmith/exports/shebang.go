package exports

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ShebangPrefix is the interpreter line every binary source file must
// start with.
const ShebangPrefix = "#!/usr/bin/env"

// ErrMissingShebang is returned when a binary file's first line does not
// start with ShebangPrefix.
var ErrMissingShebang = errors.New("missing shebang")

// ValidateShebangs checks that each candidate binary file starts with the
// expected interpreter shebang. Failures accumulate across all candidates
// and are returned together; a nil error means every file passed.
func ValidateShebangs(paths []string) error {
	var errs []error

	for _, p := range paths {
		if err := validateShebang(p); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func validateShebang(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read binary file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("cannot read binary file %s: %w", path, err)
		}
		return fmt.Errorf("%w: %s is empty", ErrMissingShebang, path)
	}

	line := scanner.Text()
	if !strings.HasPrefix(line, ShebangPrefix) {
		return fmt.Errorf("%w: %s first line is %q, want prefix %q", ErrMissingShebang, path, line, ShebangPrefix)
	}
	return nil
}
