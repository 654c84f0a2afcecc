package model

import "errors"

var (
	// ErrInvalidInput marks malformed bars, unordered dates or bad parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientHistory marks a series too short to evaluate a signal.
	ErrInsufficientHistory = errors.New("insufficient history")
)
