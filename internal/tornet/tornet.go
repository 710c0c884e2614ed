// Package tornet routes the HTTP stack through a configured Tor proxy
// and can ask the control port for a fresh circuit. The proxy itself is
// assumed to be running; nothing here launches Tor.
package tornet

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"collecte/internal/config"
	"collecte/internal/logger"
)

const controlTimeout = 10 * time.Second

// HTTPClient returns a client honoring the proxy configuration. A
// socks5 or socks5h URL routes through a SOCKS dialer so DNS resolves
// on the proxy side; an http proxy URL sets the transport proxy; with
// neither the client connects directly.
func HTTPClient(cfg config.Tor, timeout time.Duration) (*http.Client, error) {
	if cfg.SocksProxy != "" {
		parsed, err := url.Parse(cfg.SocksProxy)
		if err != nil {
			return nil, fmt.Errorf("invalid socks proxy %q: %w", cfg.SocksProxy, err)
		}
		switch parsed.Scheme {
		case "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("unsupported socks proxy scheme %q", parsed.Scheme)
		}

		var auth *proxy.Auth
		if user := parsed.User; user != nil {
			password, _ := user.Password()
			auth = &proxy.Auth{User: user.Username(), Password: password}
		}

		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("building socks dialer: %w", err)
		}

		transport := &http.Transport{}
		if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return &http.Client{Transport: transport, Timeout: timeout}, nil
	}

	if cfg.HTTPProxy != "" {
		parsed, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			return nil, fmt.Errorf("invalid http proxy %q: %w", cfg.HTTPProxy, err)
		}
		transport := &http.Transport{Proxy: http.ProxyURL(parsed)}
		return &http.Client{Transport: transport, Timeout: timeout}, nil
	}

	return &http.Client{Timeout: timeout}, nil
}

// RenewIdentity sends a NEWNYM signal to the Tor control port. With no
// control port configured it is a no-op. Callers treat failures as
// non-fatal; the outcome lands in the activity log either way.
func RenewIdentity(cfg config.Tor) error {
	if cfg.ControlPort <= 0 {
		logger.Event("TOR_NEWNYM", "no control port configured, skipping identity renewal", nil)
		return nil
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.ControlPort))
	if err := signalNewIdentity(addr, cfg.ControlPassword); err != nil {
		logger.Exception("TOR_NEWNYM", "identity renewal failed", err, map[string]interface{}{
			"port": cfg.ControlPort,
		})
		return err
	}

	logger.Event("TOR_NEWNYM", "NEWNYM signal sent", map[string]interface{}{
		"port": cfg.ControlPort,
	})
	return nil
}

func signalNewIdentity(addr, password string) error {
	conn, err := net.DialTimeout("tcp", addr, controlTimeout)
	if err != nil {
		return fmt.Errorf("connecting to control port: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(controlTimeout))

	reader := bufio.NewReader(conn)
	if err := sendCommand(conn, reader, fmt.Sprintf("AUTHENTICATE %q", password)); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	if err := sendCommand(conn, reader, "SIGNAL NEWNYM"); err != nil {
		return fmt.Errorf("requesting new identity: %w", err)
	}
	fmt.Fprint(conn, "QUIT\r\n")
	return nil
}

func sendCommand(conn net.Conn, reader *bufio.Reader, command string) error {
	if _, err := fmt.Fprintf(conn, "%s\r\n", command); err != nil {
		return err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "250") {
		return fmt.Errorf("control port replied %q", strings.TrimSpace(line))
	}
	return nil
}

// StatusMessage describes the active transport for the status report.
func StatusMessage(cfg config.Tor) string {
	if cfg.SocksProxy != "" {
		return fmt.Sprintf("Protection active : les requêtes passent par Tor (%s).", proxyLabel(cfg.SocksProxy))
	}
	if cfg.HTTPProxy != "" {
		return fmt.Sprintf("Protection active : les requêtes passent par Tor (%s).", proxyLabel(cfg.HTTPProxy))
	}
	return "Connexion directe : aucun proxy Tor détecté."
}

// proxyLabel strips credentials from the proxy URL before display.
func proxyLabel(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return raw
	}
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "socks5h"
	}
	if parsed.Port() != "" {
		return fmt.Sprintf("%s://%s:%s", scheme, parsed.Hostname(), parsed.Port())
	}
	return fmt.Sprintf("%s://%s", scheme, parsed.Hostname())
}
