// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package errutil carries shared helpers for structured errors: a
// logger that unpacks oops metadata and test assertions over codes
// and context.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error at ERROR level. oops errors contribute their
// code and context as separate attributes; plain errors log the
// message alone.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}
