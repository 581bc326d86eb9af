// Package executor runs fully formed command lines and returns their captured
// standard output.
//
// The Executor interface is the boundary between command construction (done
// by callers, with every interpolated value passed through shell.Quote) and
// process execution. Implementations in this package:
//
//   - Local: runs the command through /bin/sh -c on this machine.
//   - Func: adapts a plain function, mostly for tests and fakes.
//   - Instrumented: wraps another Executor with tracing, metrics and logging.
//
// The SSH transport in pkg/transports/ssh provides a remote implementation.
//
// Every implementation must be safe for concurrent use.
package executor
