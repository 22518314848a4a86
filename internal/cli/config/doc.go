// Package config reads the krishnadb-cli defaults file.
//
// The file (~/.krishnadb/cli.yaml by default) supplies values for global
// flags that were not given on the command line or in the environment.
package config
