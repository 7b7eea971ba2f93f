// Package cli is the interactive terminal front end: login/register
// flow with the strength gate and lockout, the list view, and edit
// mode with save/cancel.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/mzurek/zakupy/internal/client/apiclient"
	"github.com/mzurek/zakupy/internal/client/cache"
	"github.com/mzurek/zakupy/internal/client/controller"
	"github.com/mzurek/zakupy/internal/client/lockout"
	"github.com/mzurek/zakupy/internal/models"
	"github.com/mzurek/zakupy/internal/passwd"
)

type App struct {
	api      *apiclient.Client
	cache    *cache.Cache
	list     *controller.Controller
	lockout  *lockout.Counter
	reader   *bufio.Reader
	username string
	loggedIn bool
}

func NewApp(ctx context.Context, serverURL, cachePath string) (*App, error) {
	api, err := apiclient.New(serverURL)
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(ctx, cachePath)
	if err != nil {
		return nil, err
	}
	return &App{
		api:     api,
		cache:   store,
		list:    controller.New(api),
		lockout: lockout.New(),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Close() error {
	return a.cache.Close()
}

func (a *App) Run(ctx context.Context) {
	if err := a.api.Ping(ctx); err != nil {
		fmt.Println("warning: server unreachable, starting offline")
	}

	prefill := a.restoreSession(ctx)
	for !a.loggedIn {
		if !a.authPrompt(ctx, prefill) {
			return
		}
	}

	a.list.Render(os.Stdout)
	a.commandLoop(ctx)
}

// restoreSession tries the cached identity. The hint is only trusted
// after a real list fetch succeeds; any failure clears it and returns
// the username so the login form can pre-fill it.
func (a *App) restoreSession(ctx context.Context) string {
	s, err := a.cache.LoadSession(ctx)
	if err != nil || s == nil {
		return ""
	}
	if err := a.list.Refresh(ctx); err != nil {
		a.cache.ClearSession(ctx)
		fmt.Printf("Session for %s has expired, please log in again.\n", s.Username)
		return s.Username
	}
	a.username = s.Username
	a.loggedIn = true
	fmt.Printf("Welcome back, %s!\n", s.Username)
	return s.Username
}

func (a *App) prompt(label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := a.reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func (a *App) promptPassword(label string) string {
	fmt.Printf("%s: ", label)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(pw)
}

// authPrompt runs one round of the login/register menu. Returns false
// when the user wants to quit.
func (a *App) authPrompt(ctx context.Context, prefill string) bool {
	switch a.prompt("login, register or quit", "login") {
	case "quit", "q":
		return false
	case "register", "r":
		a.register(ctx)
	default:
		a.login(ctx, prefill)
	}
	return true
}

func (a *App) login(ctx context.Context, prefill string) {
	if locked, remaining := a.lockout.Locked(); locked {
		fmt.Printf("Too many failed attempts, try again in %s.\n", remaining.Round(time.Second))
		return
	}

	username := a.prompt("username", prefill)
	password := a.promptPassword("password")

	resp, err := a.api.Login(ctx, username, password)
	if err != nil {
		a.lockout.Failure()
		fmt.Println("Login failed:", err)
		return
	}
	a.lockout.Success()
	a.finishLogin(ctx, resp.Username)
}

func (a *App) register(ctx context.Context) {
	username := a.prompt("username", "")
	password := a.promptPassword("password")

	res := passwd.Check(password)
	fmt.Printf("Password strength: %s %s\n", strengthBar(res.Score), res.Level)
	if !res.AcceptableForRegistration() {
		fmt.Println("Password is too weak. Missing:")
		for _, f := range res.Feedback {
			fmt.Println("  -", f)
		}
		return
	}

	user, err := a.api.Register(ctx, username, password)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	a.finishLogin(ctx, user.Username)
}

func (a *App) finishLogin(ctx context.Context, username string) {
	a.username = username
	a.loggedIn = true
	remember := a.prompt("remember me? (y/n)", "n") == "y"
	if err := a.cache.SaveSession(ctx, username, remember); err != nil {
		fmt.Println("warning: could not save session cache:", err)
	}
	if err := a.list.Refresh(ctx); err != nil {
		fmt.Println("Could not load list:", err)
	}
}

func strengthBar(score int) string {
	return "[" + strings.Repeat("#", score) + strings.Repeat(".", 4-score) + "]"
}

func (a *App) commandLoop(ctx context.Context) {
	for {
		fmt.Print("> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "q":
			return
		case "help", "h":
			a.printHelp()
		case "list", "ls":
			if err := a.list.Refresh(ctx); err != nil {
				fmt.Println(err)
				continue
			}
			a.list.Render(os.Stdout)
		case "add":
			a.add(ctx)
		case "toggle", "t":
			a.withItem(args, func(id string) error { return a.list.Toggle(ctx, id) })
		case "del":
			a.withItem(args, func(id string) error { return a.list.Delete(ctx, id) })
		case "sweep":
			count, err := a.list.RemoveChecked(ctx)
			a.report(err, "Removed %d checked item(s).\n", count)
		case "clear":
			if a.prompt("really clear the whole list? (y/n)", "n") != "y" {
				continue
			}
			count, err := a.list.Clear(ctx)
			a.report(err, "Removed %d item(s).\n", count)
		case "edit":
			if err := a.list.EnterEdit(); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("Edit mode. Changes stay local until 'save'; 'cancel' discards them.")
			a.list.Render(os.Stdout)
		case "set":
			a.set(args)
		case "rm":
			a.withItem(args, a.list.RemoveEdited)
		case "save":
			if err := a.list.Save(ctx); err != nil {
				fmt.Println("Save failed:", err)
				continue
			}
			fmt.Println("List saved.")
			a.list.Render(os.Stdout)
		case "cancel":
			if err := a.list.Cancel(); err != nil {
				fmt.Println(err)
				continue
			}
			a.list.Render(os.Stdout)
		case "theme":
			a.theme(ctx, args)
		case "logout":
			if err := a.api.Logout(ctx); err != nil {
				fmt.Println("Logout failed:", err)
			}
			a.cache.ClearSession(ctx)
			return
		default:
			fmt.Println("unknown command, try 'help'")
		}
	}
}

func (a *App) printHelp() {
	fmt.Print(`commands:
  list            reload and show the list
  add             add an item
  toggle N        check/uncheck item N
  del N           delete item N
  sweep           remove all checked items
  clear           remove everything
  edit            enter edit mode
  set N FIELD V   (edit mode) change text/quantity/unit/description
  rm N            (edit mode) drop a row locally
  save / cancel   leave edit mode, committing or discarding
  theme [NAME]    show or set the theme preference
  logout, quit
`)
}

// withItem resolves a 1-based list position to an item id.
func (a *App) withItem(args []string, fn func(id string) error) {
	if len(args) != 1 {
		fmt.Println("usage: <command> N")
		return
	}
	n, err := strconv.Atoi(args[0])
	items := a.list.Items()
	if err != nil || n < 1 || n > len(items) {
		fmt.Println("no such item")
		return
	}
	if err := fn(items[n-1].ID); err != nil {
		fmt.Println(err)
		return
	}
	a.list.Render(os.Stdout)
}

func (a *App) add(ctx context.Context) {
	req := models.AddItemRequest{
		Text: a.prompt("name", ""),
		Unit: a.prompt("unit ("+strings.Join(models.Units, "/")+")", models.UnitSzt),
	}
	qty, err := strconv.Atoi(a.prompt("quantity", "1"))
	if err != nil {
		fmt.Println("quantity must be a number")
		return
	}
	req.Quantity = qty
	req.Description = a.prompt("description", "")

	if _, err := a.list.Add(ctx, req); err != nil {
		fmt.Println("Add failed:", err)
		return
	}
	a.list.Render(os.Stdout)
}

func (a *App) set(args []string) {
	if len(args) < 3 {
		fmt.Println("usage: set N FIELD VALUE")
		return
	}
	value := strings.Join(args[2:], " ")
	var patch models.ItemPatch
	switch args[1] {
	case "text":
		patch.Text = &value
	case "quantity":
		qty, err := strconv.Atoi(value)
		if err != nil {
			fmt.Println("quantity must be a number")
			return
		}
		patch.Quantity = &qty
	case "unit":
		patch.Unit = &value
	case "description":
		patch.Description = &value
	default:
		fmt.Println("unknown field, use text/quantity/unit/description")
		return
	}
	a.withItem(args[:1], func(id string) error { return a.list.EditItem(id, patch) })
}

func (a *App) theme(ctx context.Context, args []string) {
	if len(args) == 0 {
		theme, _ := a.cache.Theme(ctx)
		if theme == "" {
			theme = "default"
		}
		fmt.Println("theme:", theme)
		return
	}
	if err := a.cache.SetTheme(ctx, args[0]); err != nil {
		fmt.Println(err)
	}
}

func (a *App) report(err error, format string, count int64) {
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf(format, count)
	a.list.Render(os.Stdout)
}
