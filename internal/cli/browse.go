package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// browse runs a read-only command against a signed-in client.
func browse(cmd *Command, show func(ctx context.Context, sess *session, out io.Writer) error) func(args []string, s Streams) int {
	return func(args []string, s Streams) int {
		profilePath, code, ok := parseFlags(cmd, args, s, nil)
		if !ok {
			return code
		}
		sess, code, ok := openSession(profilePath, s)
		if !ok {
			return code
		}

		ctx := context.Background()
		if err := sess.ensureSignedIn(ctx, s.Err); err != nil {
			return reportError(s.Err, "sign in", err)
		}
		if err := show(ctx, sess, s.Out); err != nil {
			return reportError(s.Err, cmd.Name, err)
		}
		return ExitOK
	}
}

func runCategories(cmd *Command) func(args []string, s Streams) int {
	return browse(cmd, func(ctx context.Context, sess *session, out io.Writer) error {
		cats, err := sess.client.Categories(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.CategoryID, c.Name, c.Description)
		}
		return tw.Flush()
	})
}

func runStats(cmd *Command) func(args []string, s Streams) int {
	return browse(cmd, func(ctx context.Context, sess *session, out io.Writer) error {
		st, err := sess.client.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, sess.colors.heading("Study statistics"))
		fmt.Fprintf(out, "  Flashcards attempted: %d/%d\n", st.AttemptedFlashcards, st.TotalFlashcards)
		fmt.Fprintf(out, "  Scenarios attempted:  %d/%d\n", st.AttemptedScenarios, st.TotalScenarios)
		fmt.Fprintf(out, "  Bookmarks:            %d\n", st.Bookmarks)
		fmt.Fprintf(out, "  Responses:            %d\n", st.TotalResponses)
		if st.AverageScore != nil {
			fmt.Fprintf(out, "  Average score:        %.1f%%\n", *st.AverageScore)
		} else {
			fmt.Fprintf(out, "  Average score:        %s\n", sess.colors.muted("none yet"))
		}
		return nil
	})
}

func runBookmarks(cmd *Command) func(args []string, s Streams) int {
	return browse(cmd, func(ctx context.Context, sess *session, out io.Writer) error {
		qs, err := sess.client.Bookmarks(ctx)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			fmt.Fprintln(out, "No bookmarks.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tTITLE")
		for _, q := range qs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", q.QuestionID, q.Type, q.CategoryName, orDefault(q.Title, q.Question))
		}
		return tw.Flush()
	})
}

func runLeaderboard(cmd *Command) func(args []string, s Streams) int {
	return browse(cmd, func(ctx context.Context, sess *session, out io.Writer) error {
		lb, err := sess.client.Leaderboard(ctx)
		if err != nil {
			return err
		}
		if lb.Message != "" {
			fmt.Fprintln(out, lb.Message)
		}
		if len(lb.Leaderboard) == 0 {
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tNAME\tAVG\tBEST\tATTEMPTS")
		for _, e := range lb.Leaderboard {
			name := e.Name
			if e.IsCurrentUser {
				name += " (you)"
			}
			fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%d\n", e.Rank, name, e.AvgScore, e.BestScore, e.TotalAttempts)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if lb.UserRank != nil {
			fmt.Fprintf(out, "\nYour rank: %d of %d\n", *lb.UserRank, lb.TotalParticipants)
		}
		return nil
	})
}
