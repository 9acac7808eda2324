package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Connect(ctx context.Context) error
	CreateDatabase(ctx context.Context) error
	ReadOnlyRole(ctx context.Context) error
	Status(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Forget(ctx context.Context) error
	Setup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Users(ctx context.Context) error
	AddUser(ctx context.Context) error
	DelUser(ctx context.Context, args []string) error
	History(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: connect, createdb, readonly, status, disconnect, forget, setup, login, exit"
	helpSignedIn  = "Available commands: status, whoami, users, adduser, deluser <id>, history, readonly, disconnect, logout, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// Errors returned by handlers are printed and the loop goes on. The loop
// exits on EOF or when the user types "exit" or "quit".
//
//	Signed out:
//	  connect      connect to an existing database
//	  createdb     create a database (if needed), connect, apply schema
//	  readonly     provision the read-only reporting role
//	  status       connection and session state
//	  disconnect   close the connection
//	  forget       drop the remembered connection
//	  setup        create the first administrator
//	  login        sign in
//
//	Signed in, additionally:
//	  whoami       current operator
//	  users        list accounts (admin)
//	  adduser      create an account (admin)
//	  deluser <id> delete an account (admin)
//	  history      recent audit entries of the current operator
//	  logout       sign out
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("pg %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "connect":
			cmdErr = a.Connect(ctx)
		case "createdb":
			cmdErr = a.CreateDatabase(ctx)
		case "readonly":
			cmdErr = a.ReadOnlyRole(ctx)
		case "status":
			cmdErr = a.Status(ctx)
		case "disconnect":
			cmdErr = a.Disconnect(ctx)
		case "forget":
			cmdErr = a.Forget(ctx)
		case "setup":
			cmdErr = a.Setup(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "users":
			cmdErr = a.Users(ctx)
		case "adduser":
			cmdErr = a.AddUser(ctx)
		case "deluser":
			cmdErr = a.DelUser(ctx, args)
		case "history":
			cmdErr = a.History(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(describe(cmdErr))
		}
	}
}
