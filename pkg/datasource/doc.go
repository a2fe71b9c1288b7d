// Package datasource supplies the row snapshots that drive dynamic
// containers.
//
// Fetching rows is not brickgrid's job. Some other process publishes a
// [Snapshot] for a datasource reference and the layout side only ever reads
// the latest one through a [Resolver]. When nothing has been published for
// a reference, the binding's sample rows stand in (see [ResolveBinding]).
//
// A [CacheResolver] keeps snapshots in a cache.Cache, so the CLI shares them
// through the file cache and server instances share them through Redis.
package datasource
