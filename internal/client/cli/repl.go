package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Focus(ctx context.Context)
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Rename(ctx context.Context) error
	Passwd(ctx context.Context) error
	Rooms(ctx context.Context) error
	Join(ctx context.Context, id string) error
	Leave(ctx context.Context) error
	Say(ctx context.Context, text string) error
	Show(ctx context.Context) error
	Reconnect(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the chat CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Every non-empty line first
// reports focus to the session guard. The loop exits on scanner EOF, when
// ctx is done, or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                show available commands
//	  - signup              create an account
//	  - login               authenticate
//	  - rooms               list chat rooms
//	  - exit | quit         leave the program
//
//	Logged in, additionally:
//	  - join <id>           enter a room (leaves the current one)
//	  - say <text>          send a message to the current room
//	  - show                print the current room's transcript
//	  - leave               leave the current room
//	  - reconnect           reopen a dropped room connection
//	  - whoami              show the logged-in user
//	  - rename              change the username
//	  - passwd              change the password
//	  - logout              log out
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("chat %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		a.Focus(ctx)

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: rooms, join <id>, say <text>, show, leave, reconnect, whoami, rename, passwd, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, rooms, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "rename":
			_ = a.Rename(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "rooms":
			_ = a.Rooms(ctx)

		case "join":
			if rest == "" {
				printlnFn("Usage: join <room id>")
				continue
			}
			_ = a.Join(ctx, rest)

		case "say":
			if rest == "" {
				printlnFn("Usage: say <text>")
				continue
			}
			_ = a.Say(ctx, rest)

		case "show":
			_ = a.Show(ctx)

		case "leave":
			_ = a.Leave(ctx)

		case "reconnect":
			_ = a.Reconnect(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
