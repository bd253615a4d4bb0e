package errors

import (
	"fmt"
	"strings"
)

// Common error wrapping patterns used throughout the codebase

// WrapCommandError wraps a failed external command, keeping its stderr for the user
func WrapCommandError(command, stderr string, cause error) *BaseError {
	message := fmt.Sprintf("failed to run '%s'", command)
	err := Wrap(CommandErrorCode, message, cause).
		WithContext("command", command)
	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		err.WithContext("stderr", trimmed)
		err.Message = fmt.Sprintf("%s: %s", message, trimmed)
	}
	return err.WithSuggestion("fix the reported error and save config/routes.rb again")
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapScanError wraps a fault raised by a lens provider while scanning a document
func WrapScanError(provider, path string, cause error) *BaseError {
	message := fmt.Sprintf("%s lens scan failed", provider)
	return Wrap(ScanErrorCode, message, cause).
		WithLocation(SourceLocation{File: path}).
		WithContext("provider", provider)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(key string, cause error) *BaseError {
	message := fmt.Sprintf("invalid configuration value for %s", key)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("key", key)
}

// WrapProtocolError wraps host protocol failures
func WrapProtocolError(method string, cause error) *BaseError {
	return Wrap(ProtocolErrorCode, fmt.Sprintf("failed to handle %s", method), cause).
		WithContext("method", method)
}

// FileSystemError creates a file system error
func FileSystemError(operation, path, message string) *BaseError {
	fullMessage := fmt.Sprintf("failed to %s file '%s': %s", operation, path, message)
	return New(FileSystemErrorCode, fullMessage).
		WithContext("operation", operation).
		WithContext("path", path)
}

// ConfigurationError creates a configuration error
func ConfigurationError(key, message string) *BaseError {
	fullMessage := fmt.Sprintf("configuration error in '%s': %s", key, message)
	return New(ConfigurationErrorCode, fullMessage).
		WithContext("key", key)
}
