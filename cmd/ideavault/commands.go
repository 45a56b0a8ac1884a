package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ideavault/internal/vault"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// hasTag reports whether a comma-separated tag string contains tag.
func hasTag(tags, tag string) bool {
	for _, t := range strings.Split(tags, ",") {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// matchesSearch reports whether any of the fields contains term,
// case-insensitively.
func matchesSearch(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// --- problem ---

var problemCmd = &cobra.Command{
	Use:   "problem",
	Short: "Manage observed problems",
}

var problemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new problem",
	Long: `Record a new problem.

Examples:
  ideavault problem add --title "Slow onboarding" --severity 4 --frequency daily
  ideavault problem add --title "No audit trail" --context "Compliance reviews" --tags compliance,enterprise`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		observed, _ := cmd.Flags().GetString("context")
		severity, _ := cmd.Flags().GetInt("severity")
		frequency, _ := cmd.Flags().GetString("frequency")
		status, _ := cmd.Flags().GetString("status")
		tags, _ := cmd.Flags().GetString("tags")

		if title == "" {
			return fmt.Errorf("--title is required")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.CreateProblem(cmd.Context(), vault.ProblemFields{
			Title:           title,
			Description:     description,
			ObservedContext: observed,
			Severity:        severity,
			Frequency:       vault.Frequency(frequency),
			Status:          vault.ProblemStatus(status),
			Tags:            tags,
		})
		if err != nil {
			return err
		}

		printSuccess("Created problem #%d", id)
		return nil
	},
}

var problemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List problems, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		tag, _ := cmd.Flags().GetString("tag")
		severity, _ := cmd.Flags().GetInt("severity")
		search, _ := cmd.Flags().GetString("search")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		problems, err := store.ListProblems(cmd.Context())
		if err != nil {
			return err
		}

		shown := 0
		for _, p := range problems {
			if status != "" && string(p.Status) != status {
				continue
			}
			if tag != "" && !hasTag(p.Tags, tag) {
				continue
			}
			if severity > 0 && p.Severity != severity {
				continue
			}
			if search != "" && !matchesSearch(search, p.Title, p.Description) {
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), problemLine(p))
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No problems found.")
		}
		return nil
	},
}

var problemShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a problem with its linked ideas and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		p, err := store.GetProblem(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("problem %d not found", id)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", colorize(colorBold, fmt.Sprintf("Problem #%d:", p.ID)), p.Title)
		printField(&b, "Status", string(p.Status))
		printField(&b, "Severity", fmt.Sprintf("%d/5", p.Severity))
		printField(&b, "Frequency", string(p.Frequency))
		printField(&b, "Description", p.Description)
		printField(&b, "Observed in", p.ObservedContext)
		printField(&b, "Tags", p.Tags)
		printField(&b, "Created", p.CreatedAt.Format(dateFormat))
		printField(&b, "Updated", p.UpdatedAt.Format(dateFormat))
		fmt.Fprint(cmd.OutOrStdout(), b.String())

		ideas, err := store.IdeasForProblem(ctx, id)
		if err != nil {
			return err
		}
		if len(ideas) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), colorize(colorBold, "\nLinked ideas:"))
			for _, i := range ideas {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+ideaLine(i))
			}
		}

		notes, err := store.NotesForProblem(ctx, id)
		if err != nil {
			return err
		}
		if len(notes) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), colorize(colorBold, "\nNotes:"))
			for _, n := range notes {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+noteLine(n))
			}
		}
		return nil
	},
}

var problemEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of a problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		p, err := store.GetProblem(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("problem %d not found", id)
		}

		// Only flags the user passed overwrite the stored fields.
		f := p.ProblemFields
		if cmd.Flags().Changed("title") {
			f.Title, _ = cmd.Flags().GetString("title")
		}
		if cmd.Flags().Changed("description") {
			f.Description, _ = cmd.Flags().GetString("description")
		}
		if cmd.Flags().Changed("context") {
			f.ObservedContext, _ = cmd.Flags().GetString("context")
		}
		if cmd.Flags().Changed("severity") {
			f.Severity, _ = cmd.Flags().GetInt("severity")
		}
		if cmd.Flags().Changed("frequency") {
			freq, _ := cmd.Flags().GetString("frequency")
			f.Frequency = vault.Frequency(freq)
		}
		if cmd.Flags().Changed("status") {
			status, _ := cmd.Flags().GetString("status")
			f.Status = vault.ProblemStatus(status)
		}
		if cmd.Flags().Changed("tags") {
			f.Tags, _ = cmd.Flags().GetString("tags")
		}

		ok, err := store.UpdateProblem(ctx, id, f)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("problem %d not found", id)
		}

		printSuccess("Updated problem #%d", id)
		return nil
	},
}

var problemRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a problem, its links, and detach its notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This removes problem #%d and its links, and detaches its notes. Use --confirm to proceed.", id)
			return nil
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ok, err := store.DeleteProblem(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("problem %d not found", id)
		}

		printSuccess("Deleted problem #%d", id)
		return nil
	},
}

func init() {
	problemAddCmd.Flags().String("title", "", "short problem title (required)")
	problemAddCmd.Flags().String("description", "", "what happens and to whom")
	problemAddCmd.Flags().String("context", "", "where the problem was observed")
	problemAddCmd.Flags().Int("severity", 3, "severity from 1 to 5")
	problemAddCmd.Flags().String("frequency", "weekly", "how often it occurs: rare, weekly, or daily")
	problemAddCmd.Flags().String("status", "open", "problem status: open, solved, or ignored")
	problemAddCmd.Flags().String("tags", "", "comma-separated tags")

	problemListCmd.Flags().String("status", "", "only show problems with this status")
	problemListCmd.Flags().String("tag", "", "only show problems carrying this tag")
	problemListCmd.Flags().Int("severity", 0, "only show problems with this severity")
	problemListCmd.Flags().String("search", "", "only show problems whose title or description contains this text")

	problemEditCmd.Flags().String("title", "", "short problem title")
	problemEditCmd.Flags().String("description", "", "what happens and to whom")
	problemEditCmd.Flags().String("context", "", "where the problem was observed")
	problemEditCmd.Flags().Int("severity", 0, "severity from 1 to 5")
	problemEditCmd.Flags().String("frequency", "", "how often it occurs: rare, weekly, or daily")
	problemEditCmd.Flags().String("status", "", "problem status: open, solved, or ignored")
	problemEditCmd.Flags().String("tags", "", "comma-separated tags")

	problemRmCmd.Flags().Bool("confirm", false, "confirm deleting the problem")

	problemCmd.AddCommand(problemAddCmd)
	problemCmd.AddCommand(problemListCmd)
	problemCmd.AddCommand(problemShowCmd)
	problemCmd.AddCommand(problemEditCmd)
	problemCmd.AddCommand(problemRmCmd)
}

// --- idea ---

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Manage product ideas",
}

var ideaAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new idea",
	Long: `Record a new idea.

Examples:
  ideavault idea add --title "Guided setup wizard" --pitch "First value in five minutes"
  ideavault idea add --title "Usage-based pricing" --score 60 --tags pricing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			return fmt.Errorf("--title is required")
		}

		f := vault.IdeaFields{Title: title}
		f.Pitch, _ = cmd.Flags().GetString("pitch")
		f.TargetUser, _ = cmd.Flags().GetString("target-user")
		f.ValueProp, _ = cmd.Flags().GetString("value-prop")
		f.Differentiation, _ = cmd.Flags().GetString("differentiation")
		f.Assumptions, _ = cmd.Flags().GetString("assumptions")
		f.Risks, _ = cmd.Flags().GetString("risks")
		f.Tags, _ = cmd.Flags().GetString("tags")
		status, _ := cmd.Flags().GetString("status")
		f.Status = vault.IdeaStatus(status)
		if cmd.Flags().Changed("score") {
			score, _ := cmd.Flags().GetInt("score")
			f.Score = &score
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.CreateIdea(cmd.Context(), f)
		if err != nil {
			return err
		}

		printSuccess("Created idea #%d", id)
		return nil
	},
}

var ideaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ideas, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		tag, _ := cmd.Flags().GetString("tag")
		search, _ := cmd.Flags().GetString("search")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ideas, err := store.ListIdeas(cmd.Context())
		if err != nil {
			return err
		}

		shown := 0
		for _, i := range ideas {
			if status != "" && string(i.Status) != status {
				continue
			}
			if tag != "" && !hasTag(i.Tags, tag) {
				continue
			}
			if search != "" && !matchesSearch(search, i.Title, i.Pitch) {
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), ideaLine(i))
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No ideas found.")
		}
		return nil
	},
}

var ideaShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an idea with its linked problems and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		i, err := store.GetIdea(ctx, id)
		if err != nil {
			return err
		}
		if i == nil {
			return fmt.Errorf("idea %d not found", id)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", colorize(colorBold, fmt.Sprintf("Idea #%d:", i.ID)), i.Title)
		printField(&b, "Status", string(i.Status))
		if i.Score != nil {
			printField(&b, "Score", fmt.Sprintf("%d/100", *i.Score))
		}
		printField(&b, "Pitch", i.Pitch)
		printField(&b, "Target user", i.TargetUser)
		printField(&b, "Value prop", i.ValueProp)
		printField(&b, "Differentiation", i.Differentiation)
		printField(&b, "Assumptions", i.Assumptions)
		printField(&b, "Risks", i.Risks)
		printField(&b, "Tags", i.Tags)
		printField(&b, "Created", i.CreatedAt.Format(dateFormat))
		printField(&b, "Updated", i.UpdatedAt.Format(dateFormat))
		fmt.Fprint(cmd.OutOrStdout(), b.String())

		problems, err := store.ProblemsForIdea(ctx, id)
		if err != nil {
			return err
		}
		if len(problems) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), colorize(colorBold, "\nLinked problems:"))
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+problemLine(p))
			}
		}

		notes, err := store.NotesForIdea(ctx, id)
		if err != nil {
			return err
		}
		if len(notes) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), colorize(colorBold, "\nNotes:"))
			for _, n := range notes {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+noteLine(n))
			}
		}
		return nil
	},
}

var ideaEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of an idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		i, err := store.GetIdea(ctx, id)
		if err != nil {
			return err
		}
		if i == nil {
			return fmt.Errorf("idea %d not found", id)
		}

		f := i.IdeaFields
		if cmd.Flags().Changed("title") {
			f.Title, _ = cmd.Flags().GetString("title")
		}
		if cmd.Flags().Changed("pitch") {
			f.Pitch, _ = cmd.Flags().GetString("pitch")
		}
		if cmd.Flags().Changed("target-user") {
			f.TargetUser, _ = cmd.Flags().GetString("target-user")
		}
		if cmd.Flags().Changed("value-prop") {
			f.ValueProp, _ = cmd.Flags().GetString("value-prop")
		}
		if cmd.Flags().Changed("differentiation") {
			f.Differentiation, _ = cmd.Flags().GetString("differentiation")
		}
		if cmd.Flags().Changed("assumptions") {
			f.Assumptions, _ = cmd.Flags().GetString("assumptions")
		}
		if cmd.Flags().Changed("risks") {
			f.Risks, _ = cmd.Flags().GetString("risks")
		}
		if cmd.Flags().Changed("status") {
			status, _ := cmd.Flags().GetString("status")
			f.Status = vault.IdeaStatus(status)
		}
		if cmd.Flags().Changed("score") {
			score, _ := cmd.Flags().GetInt("score")
			if score < 0 {
				f.Score = nil
			} else {
				f.Score = &score
			}
		}
		if cmd.Flags().Changed("tags") {
			f.Tags, _ = cmd.Flags().GetString("tags")
		}

		ok, err := store.UpdateIdea(ctx, id, f)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("idea %d not found", id)
		}

		printSuccess("Updated idea #%d", id)
		return nil
	},
}

var ideaRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an idea, its links, and detach its notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This removes idea #%d and its links, and detaches its notes. Use --confirm to proceed.", id)
			return nil
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ok, err := store.DeleteIdea(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("idea %d not found", id)
		}

		printSuccess("Deleted idea #%d", id)
		return nil
	},
}

var ideaSetProblemsCmd = &cobra.Command{
	Use:   "set-problems <idea-id> [problem-id...]",
	Short: "Replace the set of problems linked to an idea",
	Long: `Replace the set of problems linked to an idea. Passing no problem ids
clears every link for the idea.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ideaID, err := parseID(args[0])
		if err != nil {
			return err
		}
		problemIDs, err := parseIDs(args[1:])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SetProblemLinksForIdea(cmd.Context(), ideaID, problemIDs); err != nil {
			return err
		}

		printSuccess("Idea #%d now links %d problem(s)", ideaID, len(problemIDs))
		return nil
	},
}

func init() {
	ideaAddCmd.Flags().String("title", "", "short idea title (required)")
	ideaAddCmd.Flags().String("pitch", "", "one-line pitch")
	ideaAddCmd.Flags().String("target-user", "", "who the idea serves")
	ideaAddCmd.Flags().String("value-prop", "", "value proposition")
	ideaAddCmd.Flags().String("differentiation", "", "what sets it apart")
	ideaAddCmd.Flags().String("assumptions", "", "assumptions to validate")
	ideaAddCmd.Flags().String("risks", "", "known risks")
	ideaAddCmd.Flags().String("status", "new", "idea status: new, researching, validating, building, or parked")
	ideaAddCmd.Flags().Int("score", 0, "conviction score from 0 to 100")
	ideaAddCmd.Flags().String("tags", "", "comma-separated tags")

	ideaListCmd.Flags().String("status", "", "only show ideas with this status")
	ideaListCmd.Flags().String("tag", "", "only show ideas carrying this tag")
	ideaListCmd.Flags().String("search", "", "only show ideas whose title or pitch contains this text")

	ideaEditCmd.Flags().String("title", "", "short idea title")
	ideaEditCmd.Flags().String("pitch", "", "one-line pitch")
	ideaEditCmd.Flags().String("target-user", "", "who the idea serves")
	ideaEditCmd.Flags().String("value-prop", "", "value proposition")
	ideaEditCmd.Flags().String("differentiation", "", "what sets it apart")
	ideaEditCmd.Flags().String("assumptions", "", "assumptions to validate")
	ideaEditCmd.Flags().String("risks", "", "known risks")
	ideaEditCmd.Flags().String("status", "", "idea status: new, researching, validating, building, or parked")
	ideaEditCmd.Flags().Int("score", -1, "conviction score from 0 to 100 (negative clears it)")
	ideaEditCmd.Flags().String("tags", "", "comma-separated tags")

	ideaRmCmd.Flags().Bool("confirm", false, "confirm deleting the idea")

	ideaCmd.AddCommand(ideaAddCmd)
	ideaCmd.AddCommand(ideaListCmd)
	ideaCmd.AddCommand(ideaShowCmd)
	ideaCmd.AddCommand(ideaEditCmd)
	ideaCmd.AddCommand(ideaRmCmd)
	ideaCmd.AddCommand(ideaSetProblemsCmd)
}

// --- link / unlink ---

var linkCmd = &cobra.Command{
	Use:   "link <problem-id> <idea-id>",
	Short: "Link a problem to an idea",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		problemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ideaID, err := parseID(args[1])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		created, err := store.LinkProblemToIdea(cmd.Context(), problemID, ideaID)
		if err != nil {
			return err
		}
		if !created {
			printWarning("Problem #%d and idea #%d are already linked", problemID, ideaID)
			return nil
		}

		printSuccess("Linked problem #%d to idea #%d", problemID, ideaID)
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <problem-id> <idea-id>",
	Short: "Remove the link between a problem and an idea",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		problemID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ideaID, err := parseID(args[1])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.UnlinkProblemFromIdea(cmd.Context(), problemID, ideaID)
		if err != nil {
			return err
		}
		if !removed {
			printWarning("Problem #%d and idea #%d are not linked", problemID, ideaID)
			return nil
		}

		printSuccess("Unlinked problem #%d from idea #%d", problemID, ideaID)
		return nil
	},
}
