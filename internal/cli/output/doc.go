// Package output renders command results for krishnadb-cli.
//
// Results are resp.Value trees or plain Go structs. The table format is
// for people: maps become KEY/VALUE rows, lists become numbered rows and
// scalars print as one line. The json and yaml formats are for scripts.
package output
