package metrics

import (
	"fmt"
	"sort"
)

// ExitBucket is the number of failed runs that ended with one exit code.
type ExitBucket struct {
	Code  int
	Count int
}

// FlattenExitCodes converts an exit code map into rows sorted by descending
// count, then by code for stability.
func FlattenExitCodes(codes map[int]int) []ExitBucket {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]ExitBucket, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, ExitBucket{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// DescribeExitCode returns a short human label for a process exit code.
func DescribeExitCode(code int) string {
	switch {
	case code < 0:
		return "terminated by signal"
	case code == 1:
		return "general error"
	case code == 2:
		return "misuse of shell builtin"
	case code == 126:
		return "not executable"
	case code == 127:
		return "command not found"
	case code > 128 && code < 160:
		return fmt.Sprintf("killed by signal %d", code-128)
	default:
		return fmt.Sprintf("exit status %d", code)
	}
}
