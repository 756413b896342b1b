package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/loqalabs/courtcall/internal/config"
	"github.com/loqalabs/courtcall/internal/match"
	"github.com/loqalabs/courtcall/internal/recognizer"
	"github.com/loqalabs/courtcall/internal/score"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath string
		sport      string
		teamA      string
		teamB      string
		archive    bool
	)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateCmd.StringVar(&configPath, "config", "courtcall.yaml", "Path to configuration file")

	replayCmd := flag.NewFlagSet("replay", flag.ExitOnError)
	replayCmd.StringVar(&sport, "sport", "tennis", "Sport to score: tennis or pickleball")
	replayCmd.StringVar(&teamA, "a", "Team A", "Name of team A")
	replayCmd.StringVar(&teamB, "b", "Team B", "Name of team B")
	replayCmd.BoolVar(&archive, "json", false, "Print the archived match as JSON when the input ends")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'replay', 'validate' or 'version'")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "replay":
		replayCmd.Parse(os.Args[2:])
		opts := replayOptions{Sport: sport, TeamA: teamA, TeamB: teamB, Archive: archive, Now: time.Now}
		if err := replay(os.Stdin, os.Stdout, opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if _, err := config.Load(configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("config valid")
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

type replayOptions struct {
	Sport   string
	TeamA   string
	TeamB   string
	Archive bool
	Now     func() time.Time
}

// replay scores a match from transcript lines, one per line. A line of the
// form "point a" or "point b" credits a rally directly. Each line prints
// the rule that fired and the score as it would be announced.
func replay(in io.Reader, out io.Writer, opts replayOptions) error {
	sport, err := score.ParseSport(opts.Sport)
	if err != nil {
		return err
	}
	engine := score.NewEngine(opts.Now)
	rec := recognizer.New(engine)
	controller := match.NewController(match.WithClock(opts.Now))
	if _, err := controller.Start(sport, opts.TeamA, opts.TeamB); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		state, _ := controller.Active()

		var (
			rule string
			tr   score.Transition
		)
		if side, ok := strings.CutPrefix(strings.ToLower(line), "point "); ok {
			parsed, err := score.ParseSide(strings.ToUpper(strings.TrimSpace(side)))
			if err != nil {
				return fmt.Errorf("%q: %w", line, err)
			}
			if tr, err = engine.Point(state, parsed); err != nil {
				return fmt.Errorf("%q: %w", line, err)
			}
			rule = "point"
		} else {
			evt, ok, err := rec.Recognize(line, state)
			if err != nil {
				return fmt.Errorf("%q: %w", line, err)
			}
			if !ok {
				fmt.Fprintf(out, "%s\t-\t(ignored)\n", line)
				continue
			}
			rule, tr = evt.Rule, evt.Transition
		}

		next, _, err := controller.Update(match.Replace(tr.State))
		if err != nil {
			return fmt.Errorf("%q: %w", line, err)
		}
		display, err := score.Format(next)
		if err != nil {
			return err
		}
		if tr.GameWon() {
			display += fmt.Sprintf(" (game %s)", next.Name(tr.Winner))
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", line, rule, display)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	m, _ := controller.End()
	if !opts.Archive {
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
