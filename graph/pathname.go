package graph

import (
	"bytes"
	"strconv"
)

// PathNameOffset parses a base-pair offset out of path names of the form
// "name:start-end" (as produced by sequence extraction tools that cut a
// subrange out of a reference). Annotation records carry coordinates on
// the full reference, so queries against such a path subtract this
// offset first.
//
// Returns 0 and false when the name carries no parseable range suffix.
func PathNameOffset(name []byte) (uint64, bool) {
	colon := bytes.LastIndexByte(name, ':')
	if colon < 0 || colon == len(name)-1 {
		return 0, false
	}
	rangePart := name[colon+1:]

	dash := bytes.IndexByte(rangePart, '-')
	if dash <= 0 {
		return 0, false
	}

	start, err := strconv.ParseUint(string(rangePart[:dash]), 10, 64)
	if err != nil {
		return 0, false
	}
	// The end bound only has to be well-formed.
	if _, err := strconv.ParseUint(string(rangePart[dash+1:]), 10, 64); err != nil {
		return 0, false
	}
	return start, true
}

// PathBaseName returns the name with any ":start-end" suffix removed.
func PathBaseName(name []byte) []byte {
	if _, ok := PathNameOffset(name); !ok {
		return name
	}
	return name[:bytes.LastIndexByte(name, ':')]
}
