/*
Package session scopes editor state to one browsing session.

A Context names the session whose active-essay pointer the repository reads
and writes, so several tabs or API clients can each track their own active
essay over one shared store. Locks serializes read-modify-write cycles on a
single essay, optionally across processes through a ports.DistributedLocker.
*/
package session
