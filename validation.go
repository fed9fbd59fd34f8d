package pbemarker

import (
	"fmt"
	"strings"
)

// Input validation helpers

// maxIterations bounds the key obtention count accepted from configuration
const maxIterations = 10_000_000

// ValidateAlgorithmName checks that an algorithm name is usable as a registry key
func ValidateAlgorithmName(name string) error {
	if name == "" {
		return &ValidationError{
			Field:   "algorithm",
			Message: "algorithm name cannot be empty",
		}
	}
	if strings.TrimSpace(name) != name {
		return &ValidationError{
			Field:   "algorithm",
			Value:   name,
			Message: "algorithm name cannot have surrounding whitespace",
		}
	}
	return nil
}

// ValidateIterations checks if a key obtention iteration count is valid
func ValidateIterations(iterations int) error {
	if iterations < 1 {
		return &ValidationError{
			Field:   "iterations",
			Value:   iterations,
			Message: "iterations must be at least 1",
		}
	}
	if iterations > maxIterations {
		return &ValidationError{
			Field:   "iterations",
			Value:   iterations,
			Message: fmt.Sprintf("iterations too large: got %d, maximum is %d", iterations, maxIterations),
		}
	}
	return nil
}

// ValidateKey checks if a key has the correct size
func ValidateKey(key []byte, expectedSize int) error {
	if key == nil {
		return &ValidationError{
			Field:   "key",
			Message: "key cannot be nil",
		}
	}

	if len(key) != expectedSize {
		return &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), expectedSize),
		}
	}

	return nil
}

// ValidateIV checks if an IV or nonce has the size the cipher expects
func ValidateIV(iv []byte, expectedSize int) error {
	if len(iv) != expectedSize {
		return &ValidationError{
			Field:   "iv",
			Value:   len(iv),
			Message: fmt.Sprintf("invalid iv size: got %d bytes, expected %d bytes", len(iv), expectedSize),
		}
	}
	return nil
}

// ValidateFilePath checks if a file path is valid (not empty)
func ValidateFilePath(path string) error {
	if path == "" {
		return &ValidationError{
			Field:   "path",
			Message: "file path cannot be empty",
		}
	}
	return nil
}
