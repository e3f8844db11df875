package core

import "errors"

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrInvalidParameter  = errors.New("invalid parameter value")
	ErrUnknownParameter  = errors.New("unknown parameter")
	ErrMissingParameter  = errors.New("missing parameter values")
	ErrDuplicateValue    = errors.New("duplicate parameter value")
	ErrUnknownMethod     = errors.New("unknown quantification method")
	ErrUnsupportedReads  = errors.New("quantification method does not support single end reads")
	ErrUnsafeMethodName  = errors.New("quantification method name is not filesystem-safe")
	ErrDuplicateRegister = errors.New("already registered")

	// State errors
	ErrDirectoryExists  = errors.New("directory already exists")
	ErrDirectoryMissing = errors.New("directory does not exist")

	// Input errors
	ErrMissingTranscript = errors.New("transcript missing from table")

	// Statistics errors
	ErrOutOfLevels = errors.New("value outside closed stratification levels")
	ErrEmptyTable  = errors.New("no records to assess")
)
