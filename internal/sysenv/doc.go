// Package sysenv wraps the process-wide system property store and the OS
// environment behind an Accessor that absorbs permission failures.
//
// The system property store is injected rather than global. It is shared by
// everything holding the same Store, and concurrent writes are last-write-wins
// with no ordering guarantee.
package sysenv
