package runtime

import (
	_ "embed"
	"os"
	"path/filepath"

	"tlog.app/go/errors"
)

// Helpers is the C source of the print functions declared by every module.
//
//go:embed c/helpers.c
var Helpers []byte

const HelpersName = "helpers.c"

// Write puts helpers.c into dir and returns its path.
func Write(dir string) (string, error) {
	p := filepath.Join(dir, HelpersName)

	err := os.WriteFile(p, Helpers, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "write %v", p)
	}

	return p, nil
}
