// Package cli provides the interactive chat command-line client.
//
// It wires configuration, local storage, the session guard, the backend API
// client, the live channel manager and the room session behind a REPL.
// Typical flow: the guard evaluates the stored credential at start and asks
// for a login when there is none, the user lists rooms, joins one, and
// chats; incoming messages are printed as they arrive.
//
// Key features:
//   - Signup / Login / Logout, username and password changes
//   - Rooms listing, join / leave, transcript grouped by day
//   - Sending messages, manual reconnect after a dropped connection
//   - Automatic logout and room exit when the session expires
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and the command handlers for details.
package cli
