// Package shell builds command lines that are safe to hand to a POSIX shell.
//
// Every value interpolated into a command line passes through Quote, which
// produces exactly one shell word equal to the input no matter which quotes,
// separators, substitutions or newlines it contains.
package shell
