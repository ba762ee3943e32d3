// Package cli implements studyctl, the terminal client for timed practice
// sessions against the study backend.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(args []string, s Streams) int
}

func Run(args []string, s Streams) int {
	if len(args) == 0 {
		printUsage(s.Out)
		return ExitUsage
	}
	if isHelpArg(args[0]) {
		printUsage(s.Out)
		return ExitOK
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(s.Err, "Unknown command: %s\n\n", args[0])
		printUsage(s.Err)
		return ExitUsage
	}

	return cmd.Run(args[1:], s)
}

func findCommand(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  studyctl <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w, "\nUse \"studyctl <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

// parseFlags parses args with a --profile flag plus whatever define adds.
// ok is false when the command should exit with code.
func parseFlags(cmd *Command, args []string, s Streams, define func(*flag.FlagSet)) (profilePath string, code int, ok bool) {
	flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	flags.SetOutput(s.Err)
	flags.StringVar(&profilePath, "profile", "", "Path to profile YAML (default: <config dir>/studyguide/profile.yml)")
	if define != nil {
		define(flags)
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printCommandUsage(cmd, s.Out)
			return "", ExitOK, false
		}
		fmt.Fprintf(s.Err, "invalid arguments: %v\n", err)
		printCommandUsage(cmd, s.Err)
		return "", ExitUsage, false
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(s.Err, "unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
		printCommandUsage(cmd, s.Err)
		return "", ExitUsage, false
	}
	return profilePath, ExitOK, true
}

func command(name, summary string, usage []string, runner func(cmd *Command) func(args []string, s Streams) int) *Command {
	cmd := &Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
	}
	cmd.Run = runner(cmd)
	return cmd
}

var commands []*Command

func init() {
	commands = []*Command{
		command("guest", "Sign in as an anonymous guest", []string{
			"studyctl guest [--profile <path>]",
		}, runGuest),
		command("login", "Sign in with email and password", []string{
			"studyctl login --email <email> [--profile <path>]",
		}, runLogin),
		command("register", "Create an account and sign in", []string{
			"studyctl register --email <email> --name <name> [--profile <path>]",
		}, runRegister),
		command("whoami", "Show the signed-in identity", []string{
			"studyctl whoami [--profile <path>]",
		}, runWhoami),
		command("logout", "Sign out and forget stored credentials", []string{
			"studyctl logout [--profile <path>]",
		}, runLogout),
		command("categories", "List question categories", []string{
			"studyctl categories [--profile <path>]",
		}, runCategories),
		command("quiz", "Run a timed multiple-choice quiz", []string{
			"studyctl quiz [--count <n>] [--category <id>] [--profile <path>]",
		}, runChoice(choiceQuiz)),
		command("exam", "Run a timed practice exam", []string{
			"studyctl exam [--category <id>] [--profile <path>]",
		}, runChoice(choiceExam)),
		command("scenario", "Answer a timed scenario graded by the backend", []string{
			"studyctl scenario [--id <question-id>] [--category <id>] [--profile <path>]",
		}, runScenario),
		command("stats", "Show study statistics", []string{
			"studyctl stats [--profile <path>]",
		}, runStats),
		command("bookmarks", "List bookmarked questions", []string{
			"studyctl bookmarks [--profile <path>]",
		}, runBookmarks),
		command("leaderboard", "Show the leaderboard", []string{
			"studyctl leaderboard [--profile <path>]",
		}, runLeaderboard),
	}
}
