// Package preflight provides readiness checks for the AI gateway, the
// camera device, the external binaries and the filesystem paths arheritage
// depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs each failure as a warning;
//     a failed check degrades a feature instead of stopping the daemon.
//   - The CLI "arheritage status" command renders the same results as a table.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
