// Package domain defines the core rules of KrishnaDB values.
//
// It has no IO dependencies. This package contains:
//
//   - InferValue: typed interpretation of a SET payload
//   - SerializedSize: the size reported by SET and GETSIZE
//   - CommandError: the error a single command fails with
package domain
