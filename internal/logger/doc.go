// Package logger wraps zap for the boot orchestrator:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing,
//   - leveled helpers taking a context (Infof, WarnKV, etc.).
//
// Services receive a context and log through it, so every line carries the
// component name and the service being handled.
package logger
