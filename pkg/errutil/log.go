// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package errutil provides helpers for logging and asserting on coded errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code, and context.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error) {
	logWith(logger.Error, msg, err)
}

// LogWarn logs an error at warning level with the same extraction rules as
// LogError. Used for recoverable follow-up failures that did not abort the
// operation that produced them.
func LogWarn(logger *slog.Logger, msg string, err error) {
	logWith(logger.Warn, msg, err)
}

func logWith(log func(msg string, args ...any), msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		log(msg, attrs...)
		return
	}
	log(msg, "error", err)
}

// HasCode reports whether err is an oops error carrying the given code.
func HasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == code
}
