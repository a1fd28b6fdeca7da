package roster

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Level tells whether a notice reports success or failure.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice keys. Each action ends in exactly one of them.
const (
	KeyLoadSuccess    = "loadSuccess"
	KeyErrorLoad      = "errorLoad"
	KeySuccessAdd     = "successAddPerson"
	KeyErrorAdd       = "errorAddPerson"
	KeyDeleteSuccess  = "deleteSuccessMessage"
	KeyErrorDelete    = "errorDeleteRows"
	KeyRestoreSuccess = "restoreSuccess"
	KeyErrorRestore   = "errorRestore"
)

// Notice is the user-facing outcome of an action.
type Notice struct {
	Level   Level  `json:"level"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

func info(key, format string, args ...any) Notice {
	return Notice{Level: LevelInfo, Key: key, Message: fmt.Sprintf(format, args...)}
}

func failure(key, format string, args ...any) Notice {
	return Notice{Level: LevelError, Key: key, Message: fmt.Sprintf(format, args...)}
}

// ValidationError carries the field errors that stopped an add.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid person: " + strings.Join(parts, ", ")
}
