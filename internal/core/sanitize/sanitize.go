// Package sanitize validates paths and glob patterns before they are placed
// into an external command's argument list.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrPathTraversal   = errors.New("path traversal detected")
	ErrSystemDirectory = errors.New("access to system directory denied")
	ErrInvalidPattern  = errors.New("pattern contains invalid characters")
	ErrEmpty           = errors.New("empty value")
)

// SystemPrefixes are absolute path prefixes that are never accepted.
var SystemPrefixes = []string{
	"/etc", "/bin", "/sbin", "/usr", "/boot", "/dev",
	"/proc", "/sys", "/root", "/var", "/lib",
}

const shellMeta = ";&|`$(){}<>\"'\\"

var allowedPattern = regexp.MustCompile(`^[A-Za-z0-9_.*/-]+$`)

// flagTokens are pak flags that are never treated as paths.
var flagTokens = map[string]bool{
	"-t": true, "-o": true, "-c": true, "-x": true, "-ad": true, "-vd": true,
	"-l": true, "-m": true, "-d": true, "-s": true, "-v": true, "-q": true,
}

// valueFlags take the following token as a value.
var valueFlags = map[string]bool{"-t": true, "-c": true, "-m": true}

// FilePath returns path unchanged when it contains no traversal sequence and
// does not point into a system directory.
func FilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmpty
	}
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	for _, prefix := range SystemPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return "", fmt.Errorf("%w: %s", ErrSystemDirectory, path)
		}
	}
	return path, nil
}

// FilePattern strips shell metacharacters from pattern and then requires the
// remainder to be a plain glob made of letters, digits and `_ . * / -`.
func FilePattern(pattern string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(shellMeta, r) {
			return -1
		}
		return r
	}, pattern)

	if cleaned != pattern {
		log.Debug().Str("pattern", pattern).Str("cleaned", cleaned).Msg("stripped shell metacharacters")
	}

	if cleaned == "" {
		return "", ErrEmpty
	}
	if !allowedPattern.MatchString(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, pattern)
	}
	return cleaned, nil
}

// Args checks every path-like token of an argument list. Known flags, the
// values of flags that take one, and tokens listed in trusted (paths the
// program resolved itself, such as session files) are passed through untouched.
func Args(args []string, trusted ...string) ([]string, error) {
	out := make([]string, 0, len(args))
	skipNext := false
	for _, arg := range args {
		switch {
		case skipNext, slices.Contains(trusted, arg):
			skipNext = false
			out = append(out, arg)
		case flagTokens[arg]:
			skipNext = valueFlags[arg]
			out = append(out, arg)
		case strings.Contains(arg, "*"):
			v, err := FilePattern(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case strings.ContainsAny(arg, "./"):
			v, err := FilePath(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		default:
			out = append(out, arg)
		}
	}
	return out, nil
}
