/*
Package log provides structured logging for the core runtime using
zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable log levels, and helper
functions for the fields the dispatcher, module lifecycle driver, and
main loop actually log: module name, element name, event id, cookie.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance.
  - Usable before Init is ever called (a console writer is installed by
    this package's own init(), so a library test that never touches
    cmd/fwsim's bootstrap still gets readable output).
  - Reconfigured once via log.Init() at process startup.

Log Levels:
  - Debug: detailed debugging information.
  - Info: general informational messages.
  - Warn: potential issues (a hook returned a non-fatal error code).
  - Error: operation failures that need investigation.
  - Fatal: unrecoverable startup failure (process exits).

Configuration:
  - Level: filter messages below threshold.
  - JSONOutput: JSON vs human-readable console.
  - Output: io.Writer for log destination (stdout by default).

Context Loggers:
  - WithComponent: tag logs with a harness component name (e.g. "boot").
  - WithModule: tag logs with a module name.
  - WithElement: tag logs with a module and element name.
  - WithEvent: tag logs with an event id and cookie.
  - WithCookie: tag logs with just a cookie.

# Usage

Initializing the Logger:

	import "github.com/scpfw/corefw/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("runtime booted")
	log.Warn("diagnostics reported a violation")

Structured Logging:

	log.Logger.Info().
		Str("module", "echo").
		Uint32("cookie", cookie).
		Msg("delayed response completed")

Component/Module Loggers:

	bootLog := log.WithComponent("boot")
	bootLog.Info().Str("run_id", runID).Msg("booting demo runtime")

	modLog := log.WithModule("notifier")
	modLog.Info().Msg("all subscriber responses received")

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance, initialized once, accessible
    from every package without being threaded through every call.

Context Logger Pattern:
  - Derive a child logger with With*, pass it down instead of adding
    the same fields at every call site.

Error Logging Pattern:
  - Always use .Err(err) for error values rather than string
    interpolation, so the error stays a structured, queryable field.

# Best Practices

Do:
  - Use Info level for production.
  - Use structured fields (.Str, .Uint32, .Err) for queryable data.
  - Derive a component/module logger once per hook or subcommand.

Don't:
  - Log in a module's ProcessEvent hook on the hot path without reason;
    dispatch runs once per event and a log call per event adds up.
  - Concatenate strings into the message instead of using typed fields.
*/
package log
