// Package log provides structured logging helpers for WebHarvest.
//
// The package wraps log/slog with a SanitizingHandler that redacts
// credentials (cookies, authorization headers, tokens) from log output.
// Site configurations may carry authentication material for crawling
// protected sites, and that material must never end up in logs.
package log
