// Package inspect serves an HTTP view of a realm's custom element
// registry.
//
// Routes:
//
//	GET  /definitions             all definitions in definition order
//	GET  /definitions/{name}      one definition
//	GET  /when-defined/{name}     waits for a definition (?timeout=5s)
//	POST /upgrade                 upgrades the document
//	GET  /elements                custom, undefined and failed elements (?state=)
//	GET  /document                the document rendered as HTML
//	GET  /events                  websocket stream of registry events
//	GET  /metrics                 Prometheus metrics
//
// The server never touches the realm directly. Each handler posts its work
// to the realm's event loop with Realm.Do.
package inspect
