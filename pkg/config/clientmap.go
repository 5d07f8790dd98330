package config

import (
	"bytes"
	"encoding/json"
	"os"
)

// ParseClientDirectoryMap parses a JSON document mapping client directory
// names to mount paths. It tolerates `//` line comments and trailing
// commas in objects and arrays, stripping both before handing the result
// to encoding/json. A missing file, or one that is empty after stripping,
// yields an empty map rather than an error.
//
// No library in the example pack offers JSONC-with-trailing-commas
// tolerance, and the transformation below is a few lines of byte
// scanning, not a parser; see DESIGN.md.
func ParseClientDirectoryMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	stripped := stripTrailingCommas(stripLineComments(data))
	if len(bytes.TrimSpace(stripped)) == 0 {
		return map[string]string{}, nil
	}

	result := make(map[string]string)
	if err := json.Unmarshal(stripped, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// stripLineComments removes `//`-prefixed comments from JSON source,
// respecting string literals (including escaped quotes) so a `//` inside a
// string value is left alone.
func stripLineComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}

		if c == '/' && i+1 < len(data) && data[i+1] == '/' {
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
			continue
		}

		out = append(out, c)
	}

	return out
}

// stripTrailingCommas removes commas that appear (ignoring whitespace)
// immediately before a closing `}` or `]`, which encoding/json otherwise
// rejects.
func stripTrailingCommas(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(data) && isJSONWhitespace(data[j]) {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue // drop the comma; the loop will emit the closer normally
			}
		}

		out = append(out, c)
	}

	return out
}

func isJSONWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
