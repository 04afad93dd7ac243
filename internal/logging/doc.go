// Package logging provides structured logging utilities for quorumslot.
//
// All packages log through log/slog. This package keeps attribute names
// consistent and builds the process logger from command-line settings.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calfile.load_dir")
//	logger.Info("calendars loaded",
//	    logging.Calendars(len(cals)),
//	    logging.Status("success"))
//
// Participant identifiers come from file names or calendar IDs. Calendar IDs
// are usually email addresses, so use Participant to log them; it keeps only
// the local part.
package logging
