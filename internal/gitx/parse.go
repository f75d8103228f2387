// SPDX-License-Identifier: MIT
package gitx

import (
	"strconv"
	"strings"
)

// ParseLsRemoteHeads parses the output of:
//
//	git ls-remote --heads <url>
//
// Each line is "<sha>\trefs/heads/<name>". Remote order is preserved and
// lines that are not branch heads are ignored.
func ParseLsRemoteHeads(output string) []string {
	var heads []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name, ok := strings.CutPrefix(fields[1], "refs/heads/")
		if !ok || name == "" {
			continue
		}
		heads = append(heads, name)
	}
	return heads
}

// ParseRevListCount parses the output of:
//
//	git rev-list --left-right --count <left>...<right>
//
// Returns (ahead, behind).
func ParseRevListCount(output string) (int, int) {
	fields := strings.Fields(output)
	if len(fields) != 2 {
		return 0, 0
	}
	ahead, _ := strconv.Atoi(fields[0])
	behind, _ := strconv.Atoi(fields[1])
	return ahead, behind
}

// ParseCount parses a single integer such as `git rev-list --count` prints.
func ParseCount(output string) int {
	n, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0
	}
	return n
}
