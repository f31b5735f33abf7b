package services

import "errors"

// Dashboard service errors
var (
	ErrUnknownTable = errors.New("unknown table")
	ErrYearNotFound = errors.New("year not found")
	ErrNoPipeline   = errors.New("pipeline not configured")
)
