// Package session maintains the single shared Epicor integration session.
//
// The Store holds the current Session and is written only through
// CompareAndSet. The Manager is the only writer: EnsureValid validates the
// held session and logs in when it is missing or rejected, coalescing
// concurrent callers into one round trip. StartBackgroundRenewal repeats
// the same sequence on a fixed interval so request paths usually find a
// fresh session.
//
// A failed login never clears or replaces the held session. A caller whose
// context ends stops waiting, but the renewal it joined runs to completion
// on a detached context bounded by the renewal timeout.
package session
