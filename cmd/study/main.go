// Command study is an interactive terminal client for flashmind. It
// drives the client-side study engine against a running server: deck
// generation, card marking with debounced auto-save, browsing and
// copying public decks.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/townerr/flashmind/internal/api/client"
	"github.com/townerr/flashmind/internal/config"
	"github.com/townerr/flashmind/internal/generation"
	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
	"github.com/townerr/flashmind/internal/study"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	serverURL := os.Getenv("FLASHMIND_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:" + cfg.HTTP.Port
	}

	api := client.New(serverURL)
	store := study.NewStore()
	gateway := study.NewGateway(store, api, study.DefaultDebounceDelay, logger)
	defer gateway.Close()

	var engineOpts []generation.Option
	if cfg.Search.Endpoint != "" {
		engineOpts = append(engineOpts, generation.WithSearchProvider(
			generation.NewSearxSearch(cfg.Search.Endpoint, nil)))
	}
	engineOpts = append(engineOpts, generation.WithReadyCallback(store.SetInitComplete))
	engine := generation.NewEngine(cfg.Generation.Endpoint, cfg.Generation.Model, cfg.Generation.APIKey, logger, engineOpts...)

	controller := study.NewController(store, gateway, engine, logger)

	app := &app{
		api:        api,
		store:      store,
		gateway:    gateway,
		controller: controller,
	}

	fmt.Printf("flashmind study client %s (%s, %s)\n", buildVersion, buildDate, buildCommit)
	fmt.Println(`type "help" for commands`)

	app.run(ctx)
}

type app struct {
	api        *client.Client
	store      *study.Store
	gateway    *study.Gateway
	controller *study.Controller
}

func (a *app) run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			if err := a.gateway.Flush(ctx); err != nil {
				fmt.Println("warning: failed to flush pending save:", err)
			}
			return
		}

		if err := a.dispatch(ctx, cmd, args); err != nil {
			fmt.Println("error:", friendly(err))
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		printHelp()
		return nil
	case "signup":
		return a.signup(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "guest":
		return a.guest(ctx)
	case "list":
		return a.list(ctx)
	case "new":
		return a.newSession(ctx, args)
	case "study":
		return a.study(args)
	case "card":
		return a.showCard()
	case "right":
		a.controller.MarkCard(true)
		return a.showCard()
	case "wrong":
		a.controller.MarkCard(false)
		return a.showCard()
	case "next":
		a.controller.Navigate(study.DirectionNext)
		return a.showCard()
	case "prev":
		a.controller.Navigate(study.DirectionPrev)
		return a.showCard()
	case "done":
		a.controller.Complete()
		fmt.Println("session closed")
		return nil
	case "public":
		return a.public(ctx)
	case "copy":
		return a.copy(ctx, args)
	case "share":
		return a.share(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "flush":
		return a.controller.Flush(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: signup <email> <username> <password>")
	}
	result, err := a.api.SignUp(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Println("signed up as", result.User.Email)
	return a.gateway.LoadSessions(ctx)
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	result, err := a.api.LogIn(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Println("logged in as", result.User.Email)
	return a.gateway.LoadSessions(ctx)
}

func (a *app) guest(ctx context.Context) error {
	result, err := a.api.SignInGuest(ctx)
	if err != nil {
		return err
	}
	fmt.Println("signed in as guest", result.User.ID)
	return nil
}

func (a *app) list(ctx context.Context) error {
	if err := a.gateway.LoadSessions(ctx); err != nil {
		return err
	}
	sessions := a.store.Sessions()
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	for i, s := range sessions {
		shared := ""
		if s.IsPublic {
			shared = " [public]"
		}
		fmt.Printf("%2d. %s — %d/%d answered, %d correct%s\n",
			i+1, s.Topic, s.CompletedCards, s.TotalCards, s.CorrectAnswers, shared)
	}
	return nil
}

func (a *app) newSession(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: new <topic...> [count]")
	}
	count := 10
	if n, err := strconv.Atoi(args[len(args)-1]); err == nil && len(args) > 1 {
		count = n
		args = args[:len(args)-1]
	}
	topic := strings.Join(args, " ")

	fmt.Printf("generating %d cards about %q...\n", count, topic)
	session, err := a.controller.CreateSession(ctx, topic, count)
	if err != nil {
		return err
	}
	fmt.Printf("created session with %d cards\n", session.TotalCards)
	return a.showCard()
}

func (a *app) study(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: study <number from list>")
	}
	session, err := a.sessionAt(args[0])
	if err != nil {
		return err
	}
	a.controller.Resume(session)
	return a.showCard()
}

func (a *app) showCard() error {
	session, ok := a.store.CurrentSession()
	if !ok {
		fmt.Println("no active session")
		return nil
	}
	index := a.store.CardIndex()
	card := session.Cards[index]
	status := "unanswered"
	if card.Answered() {
		if *card.AnsweredCorrect {
			status = "correct"
		} else {
			status = "incorrect"
		}
	}
	fmt.Printf("[%d/%d] (%s) Q: %s\n       A: %s\n",
		index+1, session.TotalCards, status, card.Question, card.Answer)
	fmt.Printf("progress: %d answered, %d correct\n", session.CompletedCards, session.CorrectAnswers)
	return nil
}

func (a *app) public(ctx context.Context) error {
	sessions, err := a.api.ListPublicSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no public decks")
		return nil
	}
	for i, s := range sessions {
		fmt.Printf("%2d. %s — %d cards, by %s (%s)\n",
			i+1, s.Topic, s.TotalCards, s.CreatorName, s.ID)
	}
	return nil
}

func (a *app) copy(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: copy <session id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	copiedID, err := a.gateway.CopySession(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println("copied as", copiedID)
	return nil
}

func (a *app) share(ctx context.Context, args []string) error {
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		return errors.New("usage: share <number from list> on|off")
	}
	session, err := a.sessionAt(args[0])
	if err != nil {
		return err
	}
	if err := a.controller.TogglePublic(ctx, session.ID, args[1] == "on"); err != nil {
		return err
	}
	fmt.Println("sharing", args[1])
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <number from list>")
	}
	session, err := a.sessionAt(args[0])
	if err != nil {
		return err
	}
	if err := a.controller.Delete(ctx, session.ID); err != nil {
		return err
	}
	fmt.Println("deleted", session.Topic)
	return nil
}

func (a *app) sessionAt(arg string) (model.StudySession, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.StudySession{}, fmt.Errorf("not a list number: %q", arg)
	}
	sessions := a.store.Sessions()
	if n < 1 || n > len(sessions) {
		return model.StudySession{}, fmt.Errorf("no session %d, run list first", n)
	}
	return sessions[n-1], nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("not a session id: %q", s)
	}
	return id, nil
}

func friendly(err error) string {
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return "not signed in (use signup, login or guest)"
	case errors.Is(err, model.ErrAnonymousForbidden):
		return "guests cannot do that, sign up first"
	case errors.Is(err, model.ErrGenerationFailed):
		return "card generation failed, try again"
	case errors.Is(err, model.ErrPersistenceUnavailable):
		return "server unreachable"
	default:
		return err.Error()
	}
}

func printHelp() {
	fmt.Print(`commands:
  signup <email> <username> <password>
  login <email> <password>
  guest
  list                     reload and show your sessions
  new <topic...> [count]   generate and start a new deck
  study <n>                resume session n from list
  card                     show the current card
  right | wrong            mark the current card and advance
  next | prev              navigate without marking
  done                     close the active session
  public                   browse public decks
  copy <session id>        copy a public deck
  share <n> on|off         toggle sharing for session n
  delete <n>               delete session n
  flush                    force pending auto-save
  quit
`)
}
