package main

import "github.com/fastygo/focus/domain"

const (
	exitOK = iota
	exitInternal
	exitInvalid
	exitNotFound
	exitConflict
	exitState
	exitUnavailable
	exitUnauthorized
)

// exitCode maps an error onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch domain.CodeOf(err) {
	case domain.ErrCodeInvalid:
		return exitInvalid
	case domain.ErrCodeNotFound:
		return exitNotFound
	case domain.ErrCodeConflict:
		return exitConflict
	case domain.ErrCodeState:
		return exitState
	case domain.ErrCodeUnavailable:
		return exitUnavailable
	case domain.ErrCodeUnauthorized, domain.ErrCodeForbidden:
		return exitUnauthorized
	default:
		return exitInternal
	}
}
