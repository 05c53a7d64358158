// Package storagedata binds typed Go values to keys in a string key-value
// store and loads them lazily.
//
// A Cell[T] reads its key on first access, caches the decoded value and writes
// it back on Save or Close when it changed (or when the key was never stored).
// Cells target one of two namespaces: KindLocal for durable values and
// KindSession for values scoped to the running session. Under js/wasm those
// map to the browser's localStorage and sessionStorage; elsewhere the default
// backend is a file store plus an in-process memory store, and any driver
// (redis, sql, nats, dynamodb, file, memory) can be plugged in through a
// Backend or WithStore.
//
// Values are encoded by a Codec (json, yaml, msgpack or cbor; binary formats
// are base64 URL encoded so they fit string stores).
//
//	ctx := context.Background()
//	err := storagedata.Use(ctx, "visits", func() int { return 0 }, func(c *storagedata.Cell[int]) error {
//		c.Update(func(n *int) { *n++ })
//		fmt.Println("visit", c.Get())
//		return nil
//	})
//
// Related cells can be grouped with a Storage, which derives keys from field
// names and saves, clears or closes them together.
package storagedata
