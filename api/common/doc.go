// Package common contains the shared building blocks of the API layer:
// configuration structs for server and client, the logger factory, and the
// wire payload types of the state backend protocol.
package common
