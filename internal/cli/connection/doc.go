// Package connection talks to the admin HTTP endpoint of a running server.
package connection
