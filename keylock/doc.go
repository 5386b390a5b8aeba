// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package keylock provides per-key mutual exclusion.

MemoryLocker serializes goroutines in one process. RedisLocker serializes
every process sharing a Redis server and instance name, using SET NX PX and
a compare-and-delete release:

	unlock, err := locker.Lock(ctx, "1234:pre-election:2021-03-01/2021-03-08")
	if err != nil {
		return err
	}
	defer unlock()

Redis keys are namespaced as fieldcode:{instance}:lock:{key}.
*/
package keylock
