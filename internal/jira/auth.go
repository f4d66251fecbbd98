package jira

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"sync"

	"github.com/dghubble/oauth1"
	krbclient "github.com/jcmturner/gokrb5/v8/client"
	krbconfig "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/spnego"
)

var (
	// ErrNoAuth is returned when a server is configured without credentials.
	ErrNoAuth = errors.New("no jira authentication configured")
	// ErrTooManyAuth is returned when more than one authentication mode is
	// configured.
	ErrTooManyAuth = errors.New("only one jira authentication mode may be configured")
)

// AuthMode names a supported authentication scheme.
type AuthMode string

const (
	AuthCookie   AuthMode = "cookie"
	AuthBasic    AuthMode = "basic"
	AuthToken    AuthMode = "token"
	AuthOAuth    AuthMode = "oauth"
	AuthKerberos AuthMode = "kerberos"
)

// OAuthOptions holds OAuth 1.0a (RSA-SHA1) credentials.
type OAuthOptions struct {
	AccessToken       string
	AccessTokenSecret string
	ConsumerKey       string
	KeyCertFile       string // PEM encoded RSA private key
}

func (o OAuthOptions) set() bool {
	return o.AccessToken != "" || o.AccessTokenSecret != "" || o.ConsumerKey != "" || o.KeyCertFile != ""
}

// Modes returns the authentication modes configured in opts.
func (o Options) Modes() []AuthMode {
	var modes []AuthMode
	if o.CookieUsername != "" || o.CookiePassword != "" {
		modes = append(modes, AuthCookie)
	}
	if o.BasicUsername != "" || o.BasicPassword != "" {
		modes = append(modes, AuthBasic)
	}
	if o.Token != "" {
		modes = append(modes, AuthToken)
	}
	if o.OAuth.set() {
		modes = append(modes, AuthOAuth)
	}
	if o.Kerberos {
		modes = append(modes, AuthKerberos)
	}
	return modes
}

// Validate reports whether exactly one complete authentication mode is
// configured.
func (o Options) Validate() error {
	_, err := o.authMode()
	return err
}

// authMode returns the single configured mode.
func (o Options) authMode() (AuthMode, error) {
	modes := o.Modes()
	switch len(modes) {
	case 0:
		return "", ErrNoAuth
	case 1:
	default:
		names := make([]string, len(modes))
		for i, m := range modes {
			names[i] = string(m)
		}
		return "", fmt.Errorf("%w: got %s", ErrTooManyAuth, strings.Join(names, ", "))
	}

	mode := modes[0]
	switch mode {
	case AuthCookie:
		if o.CookieUsername == "" || o.CookiePassword == "" {
			return "", errors.New("cookie auth requires both cookie_username and cookie_password")
		}
	case AuthBasic:
		if o.BasicUsername == "" || o.BasicPassword == "" {
			return "", errors.New("basic auth requires both http_basic_username and http_basic_password")
		}
	case AuthOAuth:
		if o.OAuth.AccessToken == "" || o.OAuth.AccessTokenSecret == "" ||
			o.OAuth.ConsumerKey == "" || o.OAuth.KeyCertFile == "" {
			return "", errors.New("oauth requires oauth_access_token, oauth_access_token_secret, oauth_consumer_key and oauth_key_cert_file")
		}
	}
	return mode, nil
}

// doer sends requests. Both *http.Client and *spnego.Client satisfy it.
type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// headerDoer sets a fixed authorization on every request.
type headerDoer struct {
	next      doer
	authorize func(*http.Request)
}

func (d *headerDoer) Do(req *http.Request) (*http.Response, error) {
	d.authorize(req)
	return d.next.Do(req)
}

// sessionDoer logs in once through the session resource and relies on the
// cookie jar afterwards.
type sessionDoer struct {
	client   *http.Client
	server   string
	username string
	password string

	mu       sync.Mutex
	loggedIn bool
}

func (d *sessionDoer) Do(req *http.Request) (*http.Response, error) {
	if err := d.login(req.Context()); err != nil {
		return nil, err
	}
	return d.client.Do(req)
}

func (d *sessionDoer) login(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loggedIn {
		return nil
	}

	body, err := json.Marshal(map[string]string{"username": d.username, "password": d.password})
	if err != nil {
		return fmt.Errorf("encode session request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.server+"/rest/auth/1/session", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("create jira session: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("create jira session: %w", err)
	}
	d.loggedIn = true
	return nil
}

func newDoer(ctx context.Context, mode AuthMode, opts Options, base *http.Client) (doer, error) {
	switch mode {
	case AuthCookie:
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client := *base
		client.Jar = jar
		return &sessionDoer{
			client:   &client,
			server:   opts.Server,
			username: opts.CookieUsername,
			password: opts.CookiePassword,
		}, nil

	case AuthBasic:
		return &headerDoer{next: base, authorize: func(r *http.Request) {
			r.SetBasicAuth(opts.BasicUsername, opts.BasicPassword)
		}}, nil

	case AuthToken:
		return &headerDoer{next: base, authorize: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+opts.Token)
		}}, nil

	case AuthOAuth:
		key, err := loadRSAKey(opts.OAuth.KeyCertFile)
		if err != nil {
			return nil, err
		}
		cfg := oauth1.Config{
			ConsumerKey: opts.OAuth.ConsumerKey,
			Signer:      &oauth1.RSASigner{PrivateKey: key},
		}
		token := oauth1.NewToken(opts.OAuth.AccessToken, opts.OAuth.AccessTokenSecret)
		// oauth1 picks the base client up from the context.
		ctx = context.WithValue(ctx, oauth1.HTTPClient, base)
		client := cfg.Client(ctx, token)
		client.Timeout = base.Timeout
		return client, nil

	case AuthKerberos:
		return newKerberosDoer(opts, base)
	}
	return nil, fmt.Errorf("unsupported auth mode %q", mode)
}

func loadRSAKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("read oauth key %s: no PEM data", path)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse oauth key %s: %w", path, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("parse oauth key %s: not an RSA key", path)
	}
	return key, nil
}

const defaultKrb5Config = "/etc/krb5.conf"

func newKerberosDoer(opts Options, base *http.Client) (doer, error) {
	confPath := opts.KerberosConfig
	if confPath == "" {
		confPath = os.Getenv("KRB5_CONFIG")
	}
	if confPath == "" {
		confPath = defaultKrb5Config
	}
	cfg, err := krbconfig.Load(confPath)
	if err != nil {
		return nil, fmt.Errorf("load kerberos config %s: %w", confPath, err)
	}

	ccachePath := kerberosCCachePath(opts.KerberosCCache)
	ccache, err := credentials.LoadCCache(ccachePath)
	if err != nil {
		return nil, fmt.Errorf("load kerberos credential cache %s: %w", ccachePath, err)
	}
	cl, err := krbclient.NewFromCCache(ccache, cfg, krbclient.DisablePAFXFAST(true))
	if err != nil {
		return nil, fmt.Errorf("create kerberos client: %w", err)
	}
	return spnego.NewClient(cl, base, ""), nil
}

// kerberosCCachePath resolves the credential cache like the MIT tools do:
// explicit path, then KRB5CCNAME, then /tmp/krb5cc_<uid>.
func kerberosCCachePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("KRB5CCNAME"); env != "" {
		return strings.TrimPrefix(env, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}
