package task

import (
	"strconv"
	"strings"

	"github.com/Iron-Ham/taskgraph/internal/errors"
)

// IDSeparator joins the segments of a hierarchical id.
const IDSeparator = "."

// ValidateID checks id against the hierarchical grammar
// first_segment(.segment)*.
//
// The first segment is either a positive integer without a leading zero or
// a label made of letters, digits, '-' and '_'. Every later segment is a
// positive integer without a leading zero.
func ValidateID(id string) error {
	if id == "" {
		return errors.NewInvalidIDError(id, "id is empty")
	}
	segs := strings.Split(id, IDSeparator)
	if err := validateFirstSegment(id, segs[0]); err != nil {
		return err
	}
	for _, seg := range segs[1:] {
		if !isPositiveInt(seg) {
			return errors.NewInvalidIDError(id, "subtask segment must be a positive integer without leading zeros")
		}
	}
	return nil
}

func validateFirstSegment(id, seg string) error {
	if seg == "" {
		return errors.NewInvalidIDError(id, "first segment is empty")
	}
	if isDigits(seg) {
		if !isPositiveInt(seg) {
			return errors.NewInvalidIDError(id, "numeric segment must be a positive integer without leading zeros")
		}
		return nil
	}
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return errors.NewInvalidIDError(id, "first segment may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}

// ParentOf returns the id implied by dropping the last segment of id, or ""
// for a top-level id.
func ParentOf(id string) string {
	i := strings.LastIndex(id, IDSeparator)
	if i < 0 {
		return ""
	}
	return id[:i]
}

// ChildID returns the id of the n-th child of parent.
func ChildID(parent string, n int) string {
	return parent + IDSeparator + strconv.Itoa(n)
}

// Depth returns the number of segments in id. Top-level ids have depth 1.
func Depth(id string) int {
	return strings.Count(id, IDSeparator) + 1
}

// TopLevelNumber returns the numeric value of a top-level integer id.
// The boolean is false for labels and subtask ids.
func TopLevelNumber(id string) (int, bool) {
	if strings.Contains(id, IDSeparator) || !isPositiveInt(id) {
		return 0, false
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CompareIDs orders ids naturally: segment by segment, numeric segments by
// value, numeric before non-numeric, and a prefix before its extensions.
// "2" < "10", "2.2" < "2.10", "2" < "2.1".
func CompareIDs(a, b string) int {
	if a == b {
		return 0
	}
	as := strings.Split(a, IDSeparator)
	bs := strings.Split(b, IDSeparator)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return strings.Compare(a, b)
}

func compareSegment(a, b string) int {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		// Compare by length first so arbitrarily long numbers never overflow.
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case an:
		return -1
	case bn:
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isPositiveInt(s string) bool {
	return isDigits(s) && s[0] != '0'
}
