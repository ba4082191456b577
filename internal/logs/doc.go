// Package logs tails the daemon log file for `arheritage logs`.
//
// Tail prints the last N lines and, in follow mode, polls for appended lines
// until the context ends. Rotation by truncation is detected and reading
// restarts from the top of the new file. A component filter understands both
// the console and JSON formats written by the logging package.
package logs
