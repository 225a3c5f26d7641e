// Package rangecache provides a disk-backed cache for byte ranges of
// remote files.
//
// A [Manager] stores contiguous chunks of remote files as flat files under
// a base directory and indexes them per remote path in an ordered interval
// map. Reads are served locally when a single cached range covers the
// request; writes are persisted asynchronously and merged with touching
// neighbor ranges so that repeated sequential or overlapping writes
// converge to one contiguous file per region.
//
// Cache state lives only in memory: the base directory is purged on
// startup and rebuilt from scratch. Entry lifecycle is driven by a
// capacity- and idle-TTL-bounded entry cache; evicting a remote path
// deletes all of its local files.
//
// # Quick Start
//
//	m, err := rangecache.New(rangecache.Config{
//	    BaseDirectory:    "/var/cache/ranges",
//	    MaxCachedEntries: 1024,
//	    CacheTTL:         2 * time.Hour,
//	    MaxInFlightBytes: 128 << 20,
//	})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	req := rangecache.ReadRequest{Path: "s3://bucket/key", Offset: 0, Length: len(data)}
//	m.Put(req, data)
//
//	buf := make([]byte, req.Length)
//	if m.Get(req, buf, 0) {
//	    // buf holds the cached bytes
//	}
//
// Get and Put are safe for concurrent use from arbitrary goroutines.
package rangecache
