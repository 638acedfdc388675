// Command oauth-init runs the one-time OAuth consent flow and stores the
// token the sheets backend reads from GOOGLE_OAUTH_TOKEN_FILE.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"pengeluaran/internal/cli"
	ledgergoogle "pengeluaran/internal/ledger/google"
)

const consentTimeout = 5 * time.Minute

func main() {
	_ = cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, slog.LevelInfo, "oauth-init")

	cfg, err := cli.LoadConfig(nil)
	if err != nil {
		cli.Fatal(logger, "Failed to load configuration", err)
	}

	var b []byte
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		b = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		b, err = os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			cli.Fatal(logger, "Failed to read OAuth client file", err)
		}
	default:
		cli.Fatal(logger, "Missing OAuth client", errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE"))
	}

	oauthCfg, err := oauthgoogle.ConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		cli.Fatal(logger, "Invalid OAuth client", err)
	}

	// The OAuth client must list this redirect URI.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Silakan tutup jendela ini dan kembali ke terminal.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})
	srv := &http.Server{Addr: "localhost:" + redirectPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Callback server failed", "error", err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, consentTimeout)
	defer cancelTimeout()

	select {
	case code := <-codeCh:
		tok, err := oauthCfg.Exchange(ctx, code)
		if err != nil {
			cli.Fatal(logger, "Token exchange failed", err)
		}
		outFile := cfg.GoogleOAuthTokenFile
		if outFile == "" {
			outFile = "token.json"
		}
		if err := ledgergoogle.SaveToken(outFile, tok); err != nil {
			cli.Fatal(logger, "Failed to save token", err)
		}
		logger.Info("Saved OAuth token", "path", outFile)
	case <-ctx.Done():
		cli.Fatal(logger, "Authorization not completed", ctx.Err())
	}
}
