// Package logging is Kiln's structured logging layer over log/slog.
//
// Every record carries the service name and build version, so the
// coordinator's output stays attributable when aggregated with agent logs.
// Format, level, and destination come from the logging section of
// config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json for production, text for a terminal
//	  output: "stdout"   # stdout or stderr
//
// Subsystems derive tagged children with With:
//
//	log := logging.New(cfg.Logging, version)
//	lockLog := log.With("component", "statelock")
//	lockLog.Info("lock acquired", "device", "voron-01", "version", 3)
//
// Never log broker credentials or API tokens; truncate identifying prefixes
// if they must appear at all.
package logging
