package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/zkloci/internal/model"
	"github.com/ppiankov/zkloci/internal/pipeline"
)

var (
	askJSON    bool
	askTimeout time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one analytics question",
	Long: `Ask classifies a question, computes campaign stats when it is an
analytics question, and prints a short briefing.

Example:
  zkloci ask "How many proofs succeeded for City Hospital Blood Drive this week?"
  zkloci ask --store memory "success rate for Metro Office Attendance in the last 30 days"
  zkloci ask --json "total verifications today"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall timeout for the question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	rt, err := pipeline.NewFromConfig(ctx, currentConfig())
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer rt.Close()

	resp := rt.HandleQuestion(ctx, question)

	if askJSON {
		return writeResponseJSON(cmd.OutOrStdout(), resp)
	}
	return writeResponseText(cmd.OutOrStdout(), resp)
}

func writeResponseJSON(w io.Writer, resp model.QueryResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

func writeResponseText(w io.Writer, resp model.QueryResponse) error {
	if _, err := fmt.Fprintln(w, resp.Answer); err != nil {
		return err
	}

	if resp.RawStats == nil {
		fmt.Fprintf(os.Stderr, "\nroute: %s\n", resp.Route)
		return nil
	}

	s := resp.RawStats
	fmt.Fprintf(os.Stderr, "\nroute: %s | stats: %s | window: %d days | target: %d\n",
		resp.Route, s.Mode, s.TimeWindowDays, s.TargetCount)
	fmt.Fprintf(os.Stderr, "proofs: %d/%d successful (%.1f%%) across %d request(s)\n",
		s.SuccessfulProofs, s.TotalProofs, s.SuccessRate*100, len(s.Requests))
	return nil
}
