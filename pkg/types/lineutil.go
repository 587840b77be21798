package types

import "strings"

// ComputeLineColumn computes 0-based line and column numbers from a byte
// offset by counting newline characters in content[:offset].
func ComputeLineColumn(content string, offset int) (line, column int) {
	if offset > len(content) {
		offset = len(content)
	}
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			column = 0
		} else {
			column++
		}
	}
	return line, column
}

// EnclosingLine returns the full line of text containing the given byte
// offset, without its trailing newline. Used as the context window for
// whitelist checks, since comment markers are line-scoped.
func EnclosingLine(content string, offset int) string {
	if offset > len(content) {
		offset = len(content)
	}
	start := strings.LastIndexByte(content[:offset], '\n') + 1
	end := strings.IndexByte(content[offset:], '\n')
	if end < 0 {
		return content[start:]
	}
	return content[start : offset+end]
}
