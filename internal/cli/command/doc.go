// Package command defines the krishnadb-cli commands using urfave/cli/v2.
//
// Each key-value command dials the server, sends one request, prints the
// reply and its latency, and exits. dump reads a snapshot file offline.
package command
