// Package util provides the small I/O helpers shared by the compiler driver.
package util

import (
	"fmt"
	"io"
	"os"
)

// ReadSource reads NyaC source code from the file at path, or from standard
// input when path is empty.
func ReadSource(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("could not read source from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read source file: %w", err)
	}
	return string(data), nil
}

// WriteOutput writes data to the file at path, or to standard output when
// path is empty.
func WriteOutput(path, data string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, data)
		return err
	}
	return os.WriteFile(path, []byte(data), 0644)
}
