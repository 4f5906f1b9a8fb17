package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks
// when the name is later interpolated into filesystem paths and request URLs.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Package names never contain separators
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a Python package name per PEP 508.
func ValidatePythonPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Python package name: %q", name)
	}

	return nil
}

// runtimeInputRegex matches runtime version inputs: major.minor with an
// optional patch component.
var runtimeInputRegex = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// ValidateRuntimeInput validates a runtime version string before it is
// matched against the discovered runtime set.
func ValidateRuntimeInput(input string) error {
	if input == "" {
		return New(ErrCodeInvalidRuntime, "runtime version cannot be empty")
	}

	if !runtimeInputRegex.MatchString(input) {
		return New(ErrCodeInvalidRuntime, "invalid runtime version %q (expected major.minor, e.g. 3.12)", input)
	}

	return nil
}

// ValidateFieldQuery validates a metadata field query. The empty string is a
// valid query (it enumerates the recognized field names); whitespace-only or
// control-character input is not.
func ValidateFieldQuery(query string) error {
	if query == "" {
		return nil
	}

	if strings.TrimSpace(query) == "" {
		return New(ErrCodeInvalidArgument, "field query cannot be blank")
	}

	for _, r := range query {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArgument, "field query contains invalid control characters")
		}
	}

	if len(query) > 128 {
		return New(ErrCodeInvalidArgument, "field query too long (max 128 characters)")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidArgument, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidArgument, "URL must use http or https scheme")
	}

	return nil
}
