// Package logging configures the structured slog logger used by indexsyn.
//
// Records are JSON. With --debug they are also written to a size-rotated
// file under ~/.indexsyn/logs/ so a failed synonym build can be inspected
// after the fact.
package logging
