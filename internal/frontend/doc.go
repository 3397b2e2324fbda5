// Package frontend exposes blueland's device management API on the session
// bus as org.blueland.Frontend.
//
// The interface is deliberately small: discover, inspect, pair-and-connect,
// disconnect, remove and send files, each addressed by MAC. Discovery is
// the only long call; everything else works against the registry populated
// by earlier discoveries and the background signal watcher.
package frontend
