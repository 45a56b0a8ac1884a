package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ideavault/internal/vault"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage research notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new note",
	Long: `Record a new note, optionally attached to a problem and/or an idea.

Examples:
  ideavault note add --content "User quit during setup" --type interview --problem 3
  ideavault note add --content "Competitor ships a wizard" --type competitor --idea 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, _ := cmd.Flags().GetString("content")
		if content == "" {
			return fmt.Errorf("--content is required")
		}

		noteType, _ := cmd.Flags().GetString("type")
		links, _ := cmd.Flags().GetString("links")

		f := vault.NoteFields{
			Type:    vault.NoteType(noteType),
			Content: content,
			Links:   links,
		}
		if cmd.Flags().Changed("problem") {
			pid, _ := cmd.Flags().GetInt64("problem")
			f.ProblemID = &pid
		}
		if cmd.Flags().Changed("idea") {
			iid, _ := cmd.Flags().GetInt64("idea")
			f.IdeaID = &iid
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.CreateNote(cmd.Context(), f)
		if err != nil {
			return err
		}

		printSuccess("Created note #%d", id)
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		var notes []vault.Note
		switch {
		case cmd.Flags().Changed("problem"):
			pid, _ := cmd.Flags().GetInt64("problem")
			notes, err = store.NotesForProblem(ctx, pid)
		case cmd.Flags().Changed("idea"):
			iid, _ := cmd.Flags().GetInt64("idea")
			notes, err = store.NotesForIdea(ctx, iid)
		default:
			notes, err = store.ListNotes(ctx)
		}
		if err != nil {
			return err
		}

		noteType, _ := cmd.Flags().GetString("type")
		shown := 0
		for _, n := range notes {
			if noteType != "" && string(n.Type) != noteType {
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), noteLine(n))
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No notes found.")
		}
		return nil
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a note in full",
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

		n, err := store.GetNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %d not found", id)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", colorize(colorBold, fmt.Sprintf("Note #%d", n.ID)), colorize(colorCyan, fmt.Sprintf("[%s]", n.Type)))
		printField(&b, "Created", n.CreatedAt.Format(dateFormat))
		if n.ProblemID != nil {
			printField(&b, "Problem", fmt.Sprintf("#%d", *n.ProblemID))
		}
		if n.IdeaID != nil {
			printField(&b, "Idea", fmt.Sprintf("#%d", *n.IdeaID))
		}
		printField(&b, "Links", n.Links)
		fmt.Fprintf(&b, "\n%s\n", n.Content)
		fmt.Fprint(cmd.OutOrStdout(), b.String())
		return nil
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of a note",
	Long: `Update fields of a note. Passing --problem 0 or --idea 0 detaches the
note from that record.`,
	Args: cobra.ExactArgs(1),
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
		n, err := store.GetNote(ctx, id)
		if err != nil {
			return err
		}
		if n == nil {
			return fmt.Errorf("note %d not found", id)
		}

		f := n.NoteFields
		if cmd.Flags().Changed("type") {
			noteType, _ := cmd.Flags().GetString("type")
			f.Type = vault.NoteType(noteType)
		}
		if cmd.Flags().Changed("content") {
			f.Content, _ = cmd.Flags().GetString("content")
		}
		if cmd.Flags().Changed("links") {
			f.Links, _ = cmd.Flags().GetString("links")
		}
		if cmd.Flags().Changed("problem") {
			pid, _ := cmd.Flags().GetInt64("problem")
			if pid <= 0 {
				f.ProblemID = nil
			} else {
				f.ProblemID = &pid
			}
		}
		if cmd.Flags().Changed("idea") {
			iid, _ := cmd.Flags().GetInt64("idea")
			if iid <= 0 {
				f.IdeaID = nil
			} else {
				f.IdeaID = &iid
			}
		}

		ok, err := store.UpdateNote(ctx, id, f)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("note %d not found", id)
		}

		printSuccess("Updated note #%d", id)
		return nil
	},
}

var noteRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This permanently removes note #%d. Use --confirm to proceed.", id)
			return nil
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ok, err := store.DeleteNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("note %d not found", id)
		}

		printSuccess("Deleted note #%d", id)
		return nil
	},
}

func init() {
	noteAddCmd.Flags().String("type", "general", "note type: interview, competitor, pricing, tech, or general")
	noteAddCmd.Flags().String("content", "", "note body (required)")
	noteAddCmd.Flags().String("links", "", "related URLs")
	noteAddCmd.Flags().Int64("problem", 0, "problem id to attach the note to")
	noteAddCmd.Flags().Int64("idea", 0, "idea id to attach the note to")

	noteListCmd.Flags().Int64("problem", 0, "only show notes attached to this problem")
	noteListCmd.Flags().Int64("idea", 0, "only show notes attached to this idea")
	noteListCmd.Flags().String("type", "", "only show notes of this type")

	noteEditCmd.Flags().String("type", "", "note type: interview, competitor, pricing, tech, or general")
	noteEditCmd.Flags().String("content", "", "note body")
	noteEditCmd.Flags().String("links", "", "related URLs")
	noteEditCmd.Flags().Int64("problem", 0, "problem id to attach the note to (0 detaches)")
	noteEditCmd.Flags().Int64("idea", 0, "idea id to attach the note to (0 detaches)")

	noteRmCmd.Flags().Bool("confirm", false, "confirm deleting the note")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteShowCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteRmCmd)
}
