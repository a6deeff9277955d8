package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
	focus int
}

func (f *fakeExec) isLoggedIn() bool          { return f.loggedIn }
func (f *fakeExec) Focus(ctx context.Context) { f.focus++ }
func (f *fakeExec) Signup(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Whoami(ctx context.Context) error { f.calls = append(f.calls, "whoami"); return nil }
func (f *fakeExec) Rename(ctx context.Context) error { f.calls = append(f.calls, "rename"); return nil }
func (f *fakeExec) Passwd(ctx context.Context) error { f.calls = append(f.calls, "passwd"); return nil }
func (f *fakeExec) Rooms(ctx context.Context) error  { f.calls = append(f.calls, "rooms"); return nil }
func (f *fakeExec) Join(ctx context.Context, id string) error {
	f.calls = append(f.calls, "join")
	f.args = append(f.args, id)
	return nil
}
func (f *fakeExec) Leave(ctx context.Context) error { f.calls = append(f.calls, "leave"); return nil }
func (f *fakeExec) Say(ctx context.Context, text string) error {
	f.calls = append(f.calls, "say")
	f.args = append(f.args, text)
	return nil
}
func (f *fakeExec) Show(ctx context.Context) error { f.calls = append(f.calls, "show"); return nil }
func (f *fakeExec) Reconnect(ctx context.Context) error {
	f.calls = append(f.calls, "reconnect")
	return nil
}

func silencePrint(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		printed = append(printed, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &printed
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silencePrint(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"rooms",
		"join 1",
		"say hello there",
		"show",
		"reconnect",
		"whoami",
		"rename",
		"passwd",
		"leave",
		"signup",
		"logout",
		"exit",
		"rooms",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login", "rooms", "join", "say", "show", "reconnect", "whoami",
		"rename", "passwd", "leave", "signup", "logout",
	}, exec.calls, "nothing runs after exit")
	assert.Equal(t, []string{"1", "hello there"}, exec.args)
	assert.Equal(t, 14, exec.focus, "every command reports focus")
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	printed := silencePrint(t)

	input := strings.NewReader("join\nsay   \n\nfoobar\nquit\n")
	exec := &fakeExec{loggedIn: true}

	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(input))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *printed, "Usage: join <room id>")
	assert.Contains(t, *printed, "Usage: say <text>")
	assert.Contains(t, *printed, "Unknown command: foobar")
	assert.Contains(t, *printed, "Bye!")
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	silencePrint(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("login\n")))
	assert.Empty(t, exec.calls)
}
