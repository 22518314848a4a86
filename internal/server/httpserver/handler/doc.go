// Package handler provides HTTP request handlers for the admin server.
//
// Handlers write plain JSON bodies. They read server state through small
// interfaces so tests can supply fixed values.
package handler
