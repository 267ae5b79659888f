// Package logging provides structured logging configuration for hostgrpc.
//
// This package wraps log/slog to provide consistent logging across the
// client, server, and CLI components. It supports configurable log levels
// and output formats.
//
// # Usage
//
// Create a logger with desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "port", 50051)
//	logger.Error("call failed", "error", err)
//
// # Integration
//
// Components accept a *slog.Logger in their constructor or via a setter.
// If no logger is provided, they fall back to logging.Nop().
package logging
