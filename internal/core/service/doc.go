// Package service implements the KrishnaDB commands.
//
// KVService holds the semantics of every command: argument joining, type
// inference, response shapes and soft "not found" results. It works
// against the KVRepository interface, which memory.Store satisfies, and
// knows nothing about connections or the wire format beyond resp.Value.
//
// Responses with more than one field are maps with fixed keys:
//
//	SET        {status, type, size}
//	FLUSH      {status, deleted}
//	MGET       [{type, value} | null, ...]
//	MSET       {status, count}
//	EDIT       {status, previous_type, type}
//	SETFILE    {status, type, size}
//	GETSIZE    {key, type, size}
//	TESTINSERT {status, size, latency_us}
//
// Failures are *domain.CommandError values. A missing key is not a failure.
package service
