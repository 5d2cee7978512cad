package lastfm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"
)

// AuthCallbackPort is the local port Last.fm redirects to after authorization.
const AuthCallbackPort = 9847

// ErrNoToken is returned when the callback carried no token.
var ErrNoToken = errors.New("no token received")

const callbackPage = `<!DOCTYPE html>
<html>
<head><title>wavesd - Last.fm</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`

// AuthServer receives the token Last.fm passes to the callback URL.
type AuthServer struct {
	server   *http.Server
	listener net.Listener
	tokens   chan string
	done     chan struct{}
}

// StartAuthServer listens on AuthCallbackPort on the loopback interface.
func StartAuthServer() (*AuthServer, error) {
	return startAuthServer(fmt.Sprintf("127.0.0.1:%d", AuthCallbackPort))
}

func startAuthServer(addr string) (*AuthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	as := &AuthServer{
		listener: listener,
		tokens:   make(chan string, 1),
		done:     make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", as.callback)
	as.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(as.done)
		_ = as.server.Serve(listener)
	}()
	return as, nil
}

// CallbackURL is the URL to pass to Last.fm as cb.
func (as *AuthServer) CallbackURL() string {
	return "http://" + as.listener.Addr().String() + "/callback"
}

func (as *AuthServer) callback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	w.Header().Set("Content-Type", "text/html")
	if token != "" {
		fmt.Fprintf(w, callbackPage, "wavesd is authorized", "You can close this window and return to the terminal.")
	} else {
		fmt.Fprintf(w, callbackPage, "Authorization failed", "No token received. Please run the login again.")
	}

	// Only the first callback counts.
	select {
	case as.tokens <- token:
	default:
	}
}

// WaitToken waits for the callback token until ctx is done.
func (as *AuthServer) WaitToken(ctx context.Context) (string, error) {
	select {
	case token := <-as.tokens:
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops the server and waits for it to exit.
func (as *AuthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = as.server.Shutdown(ctx)
	<-as.done
}

// OpenBrowser opens url with the desktop's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("open browser: unsupported platform %s", runtime.GOOS)
	}
	return cmd.Start()
}
