// Package refdata models the reference data store the resolver runs against.
//
// The reference store holds the canonical descriptions of flows, unit groups,
// flow properties and locations. The resolver only ever talks to it through
// the Store interface: a coarse candidate search, fetch-by-id, create/insert,
// and a bulk unit-group listing. Every operation takes a context and returns
// an explicit error; callers never assume success.
//
// Two implementations live here:
//
//   - SQLite: a durable local reference database (Open). This is what the
//     CLI uses and what integration-style tests run against.
//   - MemStore: a plain in-memory table, handy for unit tests and for
//     seeding small demo data sets without a database file.
//
// A remote transport (the original system spoke to a server) would be a
// third implementation of the same interface; its session and framing
// details are deliberately outside this package.
package refdata
