// Package introspection retrieves and caches descriptors of ROS interface
// types.
//
// A TypeDescriptor combines two independently retrieved parts:
//
//   - the default-value template, from "ros2 interface proto <type>"
//   - the field schema, from the get_type_schema.py helper script
//
// Introspector.GetTypeInfo memoizes descriptors per type name for the life of
// the process. A part that cannot be retrieved becomes an empty Document in
// the descriptor rather than an error; the failure is reported through the
// configured telemetry (warn log, retrieval_errors_total, a
// introspection.retrieval_failed event) and the optional Journal.
//
// GetTypeTemplate and GetTypeSchema bypass the cache and return errors
// unchanged. Errors are *Error values classified by ErrorKind; use
// errors.Is with ErrConfiguration, ErrRetrieval, ErrDecode or
// ErrInvalidTypeName.
//
// Commands run through an executor.Executor, so the same cache works against
// the local host or a robot reached over SSH.
package introspection
