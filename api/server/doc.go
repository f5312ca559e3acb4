// Package server implements the HTTP surface of the state backend: the
// Terraform state protocol (GET/POST/DELETE on /tfstate, LOCK/UNLOCK on
// /lock) plus the operational /health and /metrics endpoints.
//
// Every request resolves to exactly one operation on the state store or the
// lock manager; a single mutex serializes all of them, so read-modify-persist
// sequences are mutually exclusive across concurrently arriving requests.
// Negative outcomes (lock conflict, authorization failure) are immediate
// responses, never retried internally.
package server
