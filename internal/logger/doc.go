// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (InfoKV, WarnKV, etc.).
//
// The packager, signer and release pipeline accept a context and extract the
// logger from it, so every artifact copy and signing attempt is logged with
// the scope it belongs to.
package logger
