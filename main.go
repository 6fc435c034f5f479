package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/webapis/webcom/internal/auth"
	"github.com/webapis/webcom/internal/config"
	"github.com/webapis/webcom/internal/form"
	"github.com/webapis/webcom/internal/hangout"
	"github.com/webapis/webcom/internal/models"
	"github.com/webapis/webcom/internal/storage"
	"github.com/webapis/webcom/internal/validation"
	"github.com/webapis/webcom/internal/ws"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	local, err := storage.NewBboltStore(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = local.Close() }()

	forms := form.NewStore()
	sessions := auth.NewStore()
	hangouts := hangout.NewStore()

	client := &http.Client{}
	authService := auth.NewService(client, cfg.APIURL, local, sessions, forms, log)
	searcher := hangout.NewSearcher(ctx, client, cfg.APIURL)

	machine := ws.NewMachine(ws.NewGorillaDialer(), cfg.ChannelURL, log)
	defer machine.Close()

	effects := hangout.NewEffects(local, hangouts, machine, log)
	machine.HandleMessages(effects.HandleChannelPayload)

	machine.Subscribe(func(s ws.State) {
		fmt.Printf("* connection: %s\n", s.Phase)
		if s.Err != nil {
			fmt.Printf("* connection error: %v\n", s.Err)
		}
	})

	hangouts.Subscribe(func(prev, next hangout.State) {
		if len(next.Messages) > len(prev.Messages) {
			msg := next.Messages[len(next.Messages)-1]
			fmt.Printf("[%s] %s\n", msg.Username, msg.Text)
		}
	})

	// The channel is only opened once a user identity exists. A username
	// change is also the only trigger that reopens it.
	var mu sync.Mutex
	activeUser := ""
	sessions.Subscribe(func(s auth.Session) {
		if s.Error != "" {
			fmt.Printf("! %s\n", s.Error)
		}
		if s.SuccessMessage != "" {
			fmt.Printf("* %s\n", s.SuccessMessage)
		}
		if s.Username == "" {
			return
		}
		mu.Lock()
		changed := s.Username != activeUser
		activeUser = s.Username
		mu.Unlock()
		if !changed {
			return
		}
		machine.Connect(ctx, s.Username)
		if err := effects.Start(s.Username); err != nil {
			log.Warn().Err(err).Msg("failed to start hangout effects")
		}
	})

	authService.Recover()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gCtx.Done()
		machine.Close()
		return nil
	})

	g.Go(func() error {
		repl(gCtx, replDeps{
			auth:     authService,
			sessions: sessions,
			forms:    forms,
			hangouts: hangouts,
			effects:  effects,
			searcher: searcher,
			machine:  machine,
		})
		return context.Canceled
	})

	return g.Wait()
}

type replDeps struct {
	auth     *auth.Service
	sessions *auth.Store
	forms    *form.Store
	hangouts *hangout.Store
	effects  *hangout.Effects
	searcher *hangout.Searcher
	machine  *ws.Machine
}

func repl(ctx context.Context, deps replDeps) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("webcom client. Commands: /login /signup /forgot /passwd /logout /search /invite /select /filter /send /attach /status /quit")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "/quit":
			return

		case "/login":
			if len(args) != 2 {
				fmt.Println("usage: /login <username-or-email> <password>")
				continue
			}
			entries := []validation.Entry{
				validation.ValidateEmailOrUsername(args[0]),
				validation.ValidateEmptyString(args[1]),
			}
			if dispatchInvalid(deps.forms, entries) {
				continue
			}
			deps.auth.Login(ctx, args[0], args[1])

		case "/signup":
			if len(args) != 3 {
				fmt.Println("usage: /signup <username> <email> <password>")
				continue
			}
			entries := []validation.Entry{
				validation.ValidateUserNameConstraint(args[0]),
				validation.ValidateEmailConstraint(args[1]),
				validation.ValidatePasswordConstraint(args[2]),
			}
			if dispatchInvalid(deps.forms, entries) {
				continue
			}
			deps.auth.Signup(ctx, args[0], args[1], args[2])

		case "/forgot":
			if len(args) != 1 {
				fmt.Println("usage: /forgot <email>")
				continue
			}
			if dispatchInvalid(deps.forms, []validation.Entry{validation.ValidateEmailConstraint(args[0])}) {
				continue
			}
			deps.auth.ForgotPassword(ctx, args[0])

		case "/passwd":
			if len(args) != 2 {
				fmt.Println("usage: /passwd <new-password> <confirm>")
				continue
			}
			entries := []validation.Entry{
				validation.ValidatePasswordConstraint(args[0]),
				validation.ValidatePasswordsMatch(args[0], args[1]),
			}
			if dispatchInvalid(deps.forms, entries) {
				continue
			}
			deps.auth.ChangePassword(ctx, deps.sessions.Session().Token, args[0], args[1])

		case "/logout":
			deps.auth.Logout()

		case "/search":
			if len(args) != 1 {
				fmt.Println("usage: /search <term>")
				continue
			}
			users, err := deps.searcher.FindUsers(ctx, deps.hangouts, args[0])
			if err != nil {
				fmt.Printf("! search failed: %v\n", err)
				continue
			}
			for _, u := range users {
				fmt.Printf("  %s <%s>\n", u.Username, u.Email)
			}

		case "/invite":
			if len(args) != 1 {
				fmt.Println("usage: /invite <username>")
				continue
			}
			user, ok := findSearchResult(deps.hangouts, args[0])
			if !ok {
				fmt.Println("! not in the last search results, /search first")
				continue
			}
			deps.effects.SelectUser(user)

		case "/select":
			if len(args) != 1 {
				fmt.Println("usage: /select <username>")
				continue
			}
			deps.effects.SelectHangout(args[0])
			if deps.hangouts.State().Current == nil {
				fmt.Println("! no such hangout")
			}

		case "/filter":
			term := ""
			if len(args) > 0 {
				term = args[0]
			}
			deps.hangouts.Dispatch(hangout.SearchedHangout{Search: term})
			deps.hangouts.Dispatch(hangout.FilterHangouts{})
			for _, h := range deps.hangouts.State().Filtered {
				fmt.Printf("  %s (%s)\n", h.Username, h.State)
			}

		case "/send":
			if len(args) == 0 {
				fmt.Println("usage: /send <text>")
				continue
			}
			if err := deps.effects.SendMessage(strings.Join(args, " "), nil); err != nil {
				fmt.Printf("! %v\n", err)
			}

		case "/attach":
			if len(args) < 2 {
				fmt.Println("usage: /attach <path> <text>")
				continue
			}
			att, err := hangout.AttachmentFromFile(args[0])
			if err != nil {
				fmt.Printf("! %v\n", err)
				continue
			}
			text := strings.Join(args[1:], " ")
			if err := deps.effects.SendMessage(text, []models.Attachment{att}); err != nil {
				fmt.Printf("! %v\n", err)
			}

		case "/status":
			session := deps.sessions.Session()
			fmt.Printf("user=%s loggedIn=%v connection=%s\n",
				session.Username, session.IsLoggedIn, deps.machine.State().Phase)

		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

// dispatchInvalid routes client validation outcomes into the form state and
// reports whether any of them failed.
func dispatchInvalid(forms *form.Store, entries []validation.Entry) bool {
	invalid := false
	for _, entry := range entries {
		forms.Dispatch(form.ClientValidation{Entry: entry})
		if entry.State == validation.StateInvalid {
			fmt.Printf("! %s\n", entry.Message)
			invalid = true
		}
	}
	return invalid
}

// findSearchResult looks the username up in the last fetched search hits.
func findSearchResult(hangouts *hangout.Store, username string) (models.User, bool) {
	for _, u := range hangouts.State().SearchResults {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}
