// Package stores persists the retrieval journal in SQLite.
//
// Every template and schema retrieval made by the introspection cache can be
// recorded here, including the failures the cache hides behind empty
// descriptor parts. The schema is managed with embedded golang-migrate
// migrations and the database runs on the pure-Go modernc.org/sqlite driver.
package stores
