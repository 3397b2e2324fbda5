// Package obex handles file transfers through obexd, the bluetooth OBEX
// daemon on the session bus.
//
// Outbound, the Sender pushes files over short-lived Object Push sessions.
// Inbound, the Agent authorizes incoming transfers, either automatically or
// by prompting, and assigns them a destination in the download directory.
// obexd is bus-activated, so agent registration retries with backoff until
// the daemon is reachable.
package obex
