// Package broadcast pushes device observations to local subscribers over a
// unix domain socket.
//
// Each observation is encoded as one line of JSON with the fields name, mac
// and path. Any local process may connect to the socket and read the stream;
// subscribers that disconnect or fail a write are dropped without affecting
// the others.
package broadcast
