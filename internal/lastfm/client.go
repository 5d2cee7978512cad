package lastfm

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/wavesd/internal/catalog"
)

// ErrNotLinked is returned by NowPlaying before an account is linked.
var ErrNotLinked = errors.New("last.fm account not linked")

const approveEndpoint = "https://www.last.fm/api/auth/"

// Account is a linked Last.fm user.
type Account struct {
	User       string
	SessionKey string
}

// Client reports catalog items to one Last.fm account.
type Client struct {
	api    *lastfm.Api
	apiKey string
	linked bool
}

// NewClient returns a client for the API credentials. An empty sessionKey
// leaves it unlinked until Link succeeds.
func NewClient(apiKey, apiSecret, sessionKey string) *Client {
	c := &Client{api: lastfm.New(apiKey, apiSecret), apiKey: apiKey}
	if sessionKey != "" {
		c.api.SetSession(sessionKey)
		c.linked = true
	}
	return c
}

// RequestToken fetches an unapproved token and the page where the user
// approves it.
func (c *Client) RequestToken() (token, approveURL string, err error) {
	token, err = c.api.GetToken()
	if err != nil {
		return "", "", fmt.Errorf("request token: %w", err)
	}
	return token, c.approveURL(token), nil
}

func (c *Client) approveURL(token string) string {
	q := url.Values{"api_key": {c.apiKey}, "token": {token}}
	return approveEndpoint + "?" + q.Encode()
}

// Link exchanges an approved token for a session.
func (c *Client) Link(token string) (Account, error) {
	if err := c.api.LoginWithToken(token); err != nil {
		return Account{}, fmt.Errorf("link account: %w", err)
	}
	c.linked = true
	acct := Account{User: "unknown", SessionKey: c.api.GetSessionKey()}
	// The name is only shown to the user; the session is valid without it.
	if info, err := c.api.User.GetInfo(nil); err == nil {
		acct.User = info.Name
	}
	return acct, nil
}

// NowPlaying reports item as the track currently playing.
func (c *Client) NowPlaying(item catalog.Item) error {
	if !c.linked {
		return ErrNotLinked
	}
	if _, err := c.api.Track.UpdateNowPlaying(nowPlayingParams(item)); err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}

func nowPlayingParams(item catalog.Item) lastfm.P {
	p := lastfm.P{
		"artist": item.Artist,
		"track":  item.DisplayTitle(),
	}
	if secs := int(item.Duration.Seconds()); secs > 0 {
		p["duration"] = secs
	}
	return p
}
