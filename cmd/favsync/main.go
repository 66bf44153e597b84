// Command favsync drives the favorites sync engine from a terminal, against a
// running cmd/api server.
//
//	favsync list
//	favsync toggle airport:IST airline:TK
//	favsync is airport:IST
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/airportdex/favorite-sync/internal/adapters/httpclient"
	httpcatalog "github.com/airportdex/favorite-sync/internal/adapters/httpclient/catalog"
	httpfavoritestore "github.com/airportdex/favorite-sync/internal/adapters/httpclient/favoritestore"
	"github.com/airportdex/favorite-sync/internal/adapters/memory/authgate"
	"github.com/airportdex/favorite-sync/internal/app/favsync"
	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/platform/config"
	"github.com/airportdex/favorite-sync/internal/platform/logging"
	"github.com/airportdex/favorite-sync/internal/ports/out/navigation"
)

const (
	exitOK             = 0
	exitError          = 1
	exitUsage          = 2
	exitSessionExpired = 3
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("favsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultClientConfigPath, "path to the TOML config file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: favsync [-config path] list | toggle <type:id>... | is <type:id>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "favsync: %v\n", err)
		return exitError
	}
	log, err := logging.New(cfg.LogEnv)
	if err != nil {
		fmt.Fprintf(stderr, "favsync: build logger: %v\n", err)
		return exitError
	}
	defer func() { _ = log.Sync() }()

	user, err := sessionUser(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "favsync: %v\n", err)
		return exitError
	}

	client, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Subject: cfg.DebugSubject,
	})
	if err != nil {
		fmt.Fprintf(stderr, "favsync: %v\n", err)
		return exitError
	}

	var expired atomic.Bool
	nav := navigation.NavigatorFunc(func() {
		if expired.CompareAndSwap(false, true) {
			fmt.Fprintln(stderr, "session expired; sign in again")
		}
	})

	eng, err := favsync.NewEngine(favsync.Deps{
		Store:     httpfavoritestore.NewStore(client),
		Catalog:   httpcatalog.NewCatalog(client),
		Gate:      authgate.NewSignedInSession(user),
		Navigator: nav,
		Logger:    log.Named("favsync"),
	}, favsync.Options{RemoteTimeout: cfg.RemoteTimeout, FetchTimeout: cfg.RemoteTimeout})
	if err != nil {
		fmt.Fprintf(stderr, "favsync: %v\n", err)
		return exitError
	}
	defer eng.Close()

	code := dispatch(ctx, eng, fs.Arg(0), fs.Args()[1:], stdout, stderr)
	if expired.Load() {
		return exitSessionExpired
	}
	return code
}

func dispatch(ctx context.Context, eng *favsync.Engine, cmd string, args []string, stdout, stderr io.Writer) int {
	switch cmd {
	case "list":
		return cmdList(ctx, eng, stdout, stderr)
	case "toggle":
		return cmdToggle(ctx, eng, args, stdout, stderr)
	case "is":
		return cmdIs(ctx, eng, args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "favsync: unknown command %q\n", cmd)
		return exitUsage
	}
}

func cmdList(ctx context.Context, eng *favsync.Engine, stdout, stderr io.Writer) int {
	if err := eng.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "favsync: load favorites: %v\n", err)
		return exitError
	}
	for _, item := range eng.List().Items {
		fmt.Fprintf(stdout, "%s\t%s\n", item.Key, item.Name())
	}
	return exitOK
}

func cmdIs(ctx context.Context, eng *favsync.Engine, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: favsync is <type:id>")
		return exitUsage
	}
	key, err := domain.ParseFavoriteKey(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "favsync: %v\n", err)
		return exitUsage
	}
	if err := eng.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "favsync: load favorites: %v\n", err)
		return exitError
	}
	fmt.Fprintf(stdout, "%s\t%t\n", key, eng.Membership(key))
	return exitOK
}

// cmdToggle flips every key concurrently and prints one line per key in
// argument order.
func cmdToggle(ctx context.Context, eng *favsync.Engine, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: favsync toggle <type:id>...")
		return exitUsage
	}
	keys := make([]domain.FavoriteKey, 0, len(args))
	for _, a := range args {
		k, err := domain.ParseFavoriteKey(a)
		if err != nil {
			fmt.Fprintf(stderr, "favsync: %v\n", err)
			return exitUsage
		}
		keys = append(keys, k)
	}

	if err := eng.Start(ctx); err != nil && !errors.Is(err, favsync.ErrNoSession) {
		// Toggling still works against a stale or empty cache.
		fmt.Fprintf(stderr, "favsync: load favorites: %v\n", err)
	}

	results := make([]favsync.Result, len(keys))
	var wg sync.WaitGroup
	for i, k := range keys {
		ch := eng.Toggle(ctx, k)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = <-ch
		}()
	}
	wg.Wait()
	eng.Wait()

	code := exitOK
	for _, res := range results {
		line := fmt.Sprintf("%s\t%s\tfavorite=%t", res.Key, res.Outcome, res.IsFavorite)
		if res.Err != nil {
			line += "\terror=" + res.Err.Error()
			code = exitError
		}
		fmt.Fprintln(stdout, line)
	}
	return code
}

// sessionUser names the cache owner. The bearer token's subject is read
// without verification; the server verifies it on every call.
func sessionUser(cfg config.ClientConfig) (domain.UserID, error) {
	if cfg.DebugSubject != "" {
		return domain.UserID(cfg.DebugSubject), nil
	}
	if cfg.Token == "" {
		return "", errors.New("no identity configured (set token or debug_subject)")
	}
	parts := strings.Split(cfg.Token, ".")
	if len(parts) != 3 {
		return "", errors.New("token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode token payload: %w", err)
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Sub == "" {
		return "", errors.New("token has no subject")
	}
	return domain.UserID(claims.Sub), nil
}

