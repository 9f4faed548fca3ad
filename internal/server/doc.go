// Package server implements a local stand-in for the assistants service.
//
// It serves the read endpoints for assistants and run steps from a Catalog,
// speaks the service's wire format (list envelopes, {"error": {...}} bodies,
// the OpenAI-Beta header requirement) and exposes health probes and
// Prometheus metrics. Clients under test can point their base URL at it.
package server
