package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/apiclient"
	"github.com/stemsi/studyguide/internal/model"
	"golang.org/x/term"
)

// session loads the profile and builds a client for it.
type session struct {
	profile Profile
	client  *apiclient.Client
	log     zerolog.Logger
	colors  palette
	in      *bufio.Reader
}

func openSession(profilePath string, s Streams) (*session, int, bool) {
	p, err := loadProfile(profilePath)
	if err != nil {
		fmt.Fprintf(s.Err, "Error: %v\n", err)
		return nil, ExitError, false
	}
	client, log := newClient(p, s.Err)
	return &session{
		profile: p,
		client:  client,
		log:     log,
		colors:  palette{noColor: p.NoColor},
		in:      bufio.NewReader(s.In),
	}, ExitOK, true
}

func runGuest(cmd *Command) func(args []string, s Streams) int {
	return func(args []string, s Streams) int {
		profilePath, code, ok := parseFlags(cmd, args, s, nil)
		if !ok {
			return code
		}
		sess, code, ok := openSession(profilePath, s)
		if !ok {
			return code
		}

		u, err := sess.client.GuestLogin(context.Background())
		if err != nil {
			return reportError(s.Err, "guest sign-in failed", err)
		}
		fmt.Fprintf(s.Out, "Signed in as guest %s\n", displayName(u))
		return ExitOK
	}
}

func runLogin(cmd *Command) func(args []string, s Streams) int {
	return func(args []string, s Streams) int {
		var email string
		profilePath, code, ok := parseFlags(cmd, args, s, func(f *flag.FlagSet) {
			f.StringVar(&email, "email", "", "Account email")
		})
		if !ok {
			return code
		}
		if email == "" {
			fmt.Fprintln(s.Err, "--email is required")
			return ExitUsage
		}
		sess, code, ok := openSession(profilePath, s)
		if !ok {
			return code
		}

		password, err := readSecret(sess.in, s, "Password: ")
		if err != nil {
			return reportError(s.Err, "read password", err)
		}
		u, err := sess.client.Login(context.Background(), model.LoginRequest{Email: email, Password: password})
		if err != nil {
			return reportError(s.Err, "login failed", err)
		}
		fmt.Fprintf(s.Out, "Signed in as %s\n", displayName(u))
		return ExitOK
	}
}

func runRegister(cmd *Command) func(args []string, s Streams) int {
	return func(args []string, s Streams) int {
		var email, name string
		profilePath, code, ok := parseFlags(cmd, args, s, func(f *flag.FlagSet) {
			f.StringVar(&email, "email", "", "Account email")
			f.StringVar(&name, "name", "", "Display name")
		})
		if !ok {
			return code
		}
		if email == "" || name == "" {
			fmt.Fprintln(s.Err, "--email and --name are required")
			return ExitUsage
		}
		sess, code, ok := openSession(profilePath, s)
		if !ok {
			return code
		}

		password, err := readSecret(sess.in, s, "Password: ")
		if err != nil {
			return reportError(s.Err, "read password", err)
		}
		if len(password) < 6 {
			fmt.Fprintln(s.Err, "Error: password must be at least 6 characters")
			return ExitUsage
		}
		u, err := sess.client.Register(context.Background(), model.RegisterRequest{Email: email, Password: password, Name: name})
		if err != nil {
			return reportError(s.Err, "registration failed", err)
		}
		fmt.Fprintf(s.Out, "Registered and signed in as %s\n", displayName(u))
		return ExitOK
	}
}

func runWhoami(cmd *Command) func(args []string, s Streams) int {
	return func(args []string, s Streams) int {
		profilePath, code, ok := parseFlags(cmd, args, s, nil)
		if !ok {
			return code
		}
		sess, code, ok := openSession(profilePath, s)
		if !ok {
			return code
		}

		u, err := sess.client.Restore(context.Background())
		if errors.Is(err, apiclient.ErrNoCredentials) {
			fmt.Fprintln(s.Out, "Not signed in. Run \"studyctl guest\" or \"studyctl login\".")
			return ExitError
		}
		if err != nil {
			return reportError(s.Err, "restore session", err)
		}

		fmt.Fprintf(s.Out, "%s\n", sess.colors.heading(displayName(u)))
		if u.Email != "" {
			fmt.Fprintf(s.Out, "  Email: %s\n", u.Email)
		}
		fmt.Fprintf(s.Out, "  Role:  %s\n", u.Role)
		return ExitOK
	}
}

func runLogout(cmd *Command) func(args []string, s Streams) int {
	return func(args []string, s Streams) int {
		profilePath, code, ok := parseFlags(cmd, args, s, nil)
		if !ok {
			return code
		}
		sess, code, ok := openSession(profilePath, s)
		if !ok {
			return code
		}

		if err := sess.client.Logout(context.Background()); err != nil {
			return reportError(s.Err, "logout failed", err)
		}
		fmt.Fprintln(s.Out, "Signed out")
		return ExitOK
	}
}

// readSecret reads without echo from a terminal, or a plain line otherwise.
func readSecret(in *bufio.Reader, s Streams, prompt string) (string, error) {
	fmt.Fprint(s.Err, prompt)
	if f, ok := s.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(s.Err)
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func displayName(u model.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.UserID
	}
}

// reportError prints err with a hint for the common upstream failures.
func reportError(w io.Writer, what string, err error) int {
	fmt.Fprintf(w, "Error: %s: %v\n", what, err)
	switch {
	case errors.Is(err, apiclient.ErrNoCredentials), apiclient.IsUnauthorized(err):
		fmt.Fprintln(w, "Sign in again with \"studyctl guest\" or \"studyctl login\".")
	case apiclient.IsNetworkError(err):
		fmt.Fprintln(w, "The study backend is unreachable. Check upstream_url in your profile.")
	}
	return ExitError
}
