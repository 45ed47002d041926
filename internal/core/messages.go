// Package core provides the dataset cache and ingestion pipeline.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Dataset not found: id unknown or backing file missing
//	DS002 - Refresh busy: too many refreshes in progress
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Missing sheet: the required sheet is absent from the workbook
//	FMT002 - Malformed row: a row's column count does not match the header
//	FMT003 - Encoding error: the file cannot be decoded with the configured charset
//	FMT004 - Unreadable workbook: the file is not a valid spreadsheet
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Read failure: the file could not be read from disk
//	FILE002 - Hash failure: the file could not be fingerprinted
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check server logs for the original cause
//
// Patterns are matched case-insensitively with strings.Contains; the
// first match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with a support code.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		// Before "not found": a missing required sheet also says "not
		// found" but is a format problem, not a missing dataset.
		pattern: "required sheet",
		msg: UserMessage{
			Message: "The required sheet is missing from the workbook",
			Action:  "Check the error detail for the sheets that do exist",
			Code:    "FMT001",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "Verify the dataset id and that its file exists in a configured root",
			Code:    "DS001",
		},
	},
	{
		pattern: "too many concurrent refreshes",
		msg: UserMessage{
			Message: "Too many refreshes in progress",
			Action:  "Please wait a moment and try again",
			Code:    "DS002",
		},
	},
	{
		pattern: "malformed row",
		msg: UserMessage{
			Message: "The file contains a malformed row",
			Action:  "Fix the row or relax the dataset's bad-row policy",
			Code:    "FMT002",
		},
	},
	{
		pattern: "cannot decode",
		msg: UserMessage{
			Message: "The file cannot be decoded with the configured charset",
			Action:  "Verify the dataset's encoding setting matches the file",
			Code:    "FMT003",
		},
	},
	{
		pattern: "cannot open workbook",
		msg: UserMessage{
			Message: "The file is not a valid spreadsheet",
			Action:  "Re-export the file as xlsx",
			Code:    "FMT004",
		},
	},
	{
		pattern: "io error: read",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is present and readable, then retry",
			Code:    "FILE001",
		},
	},
	{
		pattern: "io error",
		msg: UserMessage{
			Message: "The file could not be fingerprinted",
			Action:  "Check file permissions, then retry",
			Code:    "FILE002",
		},
	},
}

// defaultMessage is the ERR000 fallback. Check server logs for the
// original technical error when users report it.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first matching pattern (case-insensitive) wins; unmatched errors
// fall back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
