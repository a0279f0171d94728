package domain

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// StateFormatVersion is the version of the on-disk state schema.
// Bumping it orphans every existing state file because it is part of the file name.
const StateFormatVersion = 1

const stateFileHashLen = 10

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// SanitizeCacheID replaces every character that is not safe in a file name with '_'.
func SanitizeCacheID(id string) string {
	return unsafeIDChars.ReplaceAllString(id, "_")
}

// StateFileName derives the state file name for a cache id.
// The name is the sanitized id followed by a short hash of the raw id and the
// state format version, so ids that sanitize to the same stem still get distinct names.
func StateFileName(id string) string {
	sum := xxhash.Sum64String(id + "\nstate format version: " + strconv.Itoa(StateFormatVersion))
	return SanitizeCacheID(id) + "-" + fmt.Sprintf("%016x", sum)[:stateFileHashLen]
}
