package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Task IDs have the form CODE-N or CODE-N-M-..., where CODE is the
// project code (2-5 uppercase letters) and each numeric segment is the
// position within its parent. The ID must sit at the start of the task
// name, followed by whitespace or end of string.
var (
	idPattern   = regexp.MustCompile(`^([A-Z]{2,5})-(\d+(?:-\d+)*)(?:\s|$)`)
	codePattern = regexp.MustCompile(`^[A-Z]{2,5}$`)
)

// ValidateCode checks that a project code is 2-5 uppercase letters.
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return fmt.Errorf("invalid project code %q: must be 2-5 uppercase letters", code)
	}
	return nil
}

// ParseID extracts the numeric sequence of a task ID from the start of
// a task name. The leading code must equal the given code exactly;
// otherwise the name is treated as unlabeled. Numeric segments with
// leading zeros are accepted and parsed as integers.
func ParseID(name, code string) ([]int, bool) {
	matches := idPattern.FindStringSubmatch(name)
	if matches == nil || matches[1] != code {
		return nil, false
	}

	parts := strings.Split(matches[2], "-")
	seq := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		seq[i] = n
	}
	return seq, true
}

// FormatID renders a code and numeric sequence as a task ID string,
// e.g. ("PRJ", [42 3]) -> "PRJ-42-3".
func FormatID(code string, seq []int) string {
	var sb strings.Builder
	sb.WriteString(code)
	for _, n := range seq {
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// HasID reports whether a task name starts with a valid ID for the code.
func HasID(name, code string) bool {
	_, ok := ParseID(name, code)
	return ok
}

// ExtractID returns the canonical string form of the ID at the start of
// a task name, or false if the name carries none.
func ExtractID(name, code string) (string, bool) {
	seq, ok := ParseID(name, code)
	if !ok {
		return "", false
	}
	return FormatID(code, seq), true
}

// NumericPath renders a sequence without the code, e.g. [42 3] -> "42-3".
// Used as the key for per-parent subtask counters.
func NumericPath(seq []int) string {
	parts := make([]string, len(seq))
	for i, n := range seq {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "-")
}
