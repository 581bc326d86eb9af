package introspection

import (
	"github.com/openfroyo/typeintro/pkg/executor"
	"github.com/openfroyo/typeintro/pkg/telemetry"
)

// Option configures an Introspector.
type Option func(*Introspector)

// WithExecutor sets the command executor. The default runs commands locally.
func WithExecutor(exec executor.Executor) Option {
	return func(i *Introspector) {
		i.exec = exec
	}
}

// WithTool sets the command-line tool used for template dumps.
func WithTool(tool string) Option {
	return func(i *Introspector) {
		i.tool = tool
	}
}

// WithInterpreter sets the interpreter used to run the schema helper script.
func WithInterpreter(interpreter string) Option {
	return func(i *Introspector) {
		i.interpreter = interpreter
	}
}

// WithTelemetry sets logging, tracing, metrics and events.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(i *Introspector) {
		if tel != nil {
			i.tel = tel
		}
	}
}

// WithJournal records every retrieval outcome in j.
func WithJournal(j Journal) Option {
	return func(i *Introspector) {
		i.journal = j
	}
}

// WithMaxConcurrency bounds the parallel lookups made by GetTypeInfos.
func WithMaxConcurrency(n int) Option {
	return func(i *Introspector) {
		if n > 0 {
			i.maxConcurrency = n
		}
	}
}
