package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/wavesd/internal/lastfm"
)

const authTimeout = 5 * time.Minute

// ErrNoAuthWait is returned by login when neither the callback server nor
// an interactive terminal can deliver the authorization.
var ErrNoAuthWait = errors.New("cannot wait for authorization: callback port busy and no terminal")

// ErrNoLastfmKeys is returned by login when the API credentials are missing.
var ErrNoLastfmKeys = errors.New("lastfm.api_key and lastfm.api_secret must be set in the config")

func newLastfmCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lastfm",
		Short: "Manage Last.fm now-playing forwarding",
	}
	cmd.AddCommand(newLastfmLoginCommand(opts), newLastfmStatusCommand(opts))
	return cmd
}

func newLastfmLoginCommand(opts *options) *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize wavesd and print the session key for the config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc := opts.cfg.Lastfm
			if lc.APIKey == "" || lc.APISecret == "" {
				return ErrNoLastfmKeys
			}
			client := lastfm.NewClient(lc.APIKey, lc.APISecret, "")
			out := cmd.OutOrStdout()

			token, authURL, err := client.RequestToken()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
			defer cancel()

			// The callback carries a fresh token. Without it, the user
			// confirms in the terminal and the requested token is used.
			var waits []func(context.Context) (string, error)
			interactive := isTerminal(cmd.InOrStdin())
			if interactive {
				waits = append(waits, confirm(cmd.InOrStdin(), token))
			}
			if srv, err := lastfm.StartAuthServer(); err != nil {
				opts.logger.Debug("callback server unavailable", "err", err)
			} else {
				defer srv.Shutdown()
				authURL += "&cb=" + url.QueryEscape(srv.CallbackURL())
				waits = append(waits, srv.WaitToken)
			}
			if len(waits) == 0 {
				return ErrNoAuthWait
			}

			fmt.Fprintln(out, "Authorize wavesd on Last.fm:")
			fmt.Fprintln(out, "  "+authURL)
			if !noBrowser {
				if err := lastfm.OpenBrowser(authURL); err != nil {
					opts.logger.Debug("open browser", "err", err)
				}
			}
			if interactive {
				fmt.Fprintln(out, dimStyle.Render("Press Enter once authorized."))
			}

			token, err = first(ctx, waits...)
			if err != nil {
				return err
			}
			acct, err := client.Link(token)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Linked as %s. Add to your config:\n\n", titleStyle.Render(acct.User))
			fmt.Fprintf(out, "[lastfm]\nsession_key = %q\n", acct.SessionKey)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the authorization URL without opening it")
	return cmd
}

func newLastfmStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether now-playing forwarding is configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if opts.cfg.HasLastfmConfig() {
				fmt.Fprintln(out, "Last.fm: "+favStyle.Render("linked"))
			} else {
				fmt.Fprintln(out, "Last.fm: "+dimStyle.Render("not linked"))
			}
			return nil
		},
	}
}

// confirm waits for a line on in and then yields token.
func confirm(in io.Reader, token string) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		line := make(chan error, 1)
		go func() {
			_, err := bufio.NewReader(in).ReadString('\n')
			line <- err
		}()
		select {
		case err := <-line:
			if err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			return token, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

type waitResult struct {
	token string
	err   error
}

// first returns the first successful wait, or the last error once all failed.
func first(ctx context.Context, waits ...func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan waitResult, len(waits))
	for _, wait := range waits {
		go func() {
			token, err := wait(ctx)
			results <- waitResult{token, err}
		}()
	}

	var err error
	for range waits {
		r := <-results
		if r.err == nil {
			return r.token, nil
		}
		err = r.err
	}
	return "", err
}
