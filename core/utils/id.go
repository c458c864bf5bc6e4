package utils

import (
	"fmt"
	"strings"
	"time"

	"schedule-board/core/constants"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func GenerateID() string {
	id, err := gonanoid.Generate(idAlphabet, 7)
	if err != nil {
		return ""
	}
	return id
}

// NewTempID produces a client-local placeholder id for a record that has not
// been confirmed by the server yet. The reserved prefix keeps it
// distinguishable from server-assigned uuids; timestamp plus nanoid suffix
// makes collisions within a session practically impossible.
func NewTempID() string {
	return fmt.Sprintf("%s%d_%s", constants.TempIDPrefix, time.Now().UnixNano(), GenerateID())
}

func IsTempID(id string) bool {
	return strings.HasPrefix(id, constants.TempIDPrefix)
}
