package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/compass-oss/compass/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and manage stored memories",
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all memories, newest first",
	RunE:  runMemoryList,
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <query> [limit]",
	Short: "Search memories by content",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMemorySearch,
}

var memoryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one memory in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryShow,
}

var memoryPromoteCmd = &cobra.Command{
	Use:   "promote <id> <tier>",
	Short: "Promote a memory to the mid or long tier",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemoryPromote,
}

var memoryForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryForget,
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory counts per tier",
	RunE:  runMemoryStats,
}

var memoryTranscriptCmd = &cobra.Command{
	Use:   "transcript <conversation-id>",
	Short: "Show the transcript of a past conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryTranscript,
}

func init() {
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memorySearchCmd)
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryPromoteCmd)
	memoryCmd.AddCommand(memoryForgetCmd)
	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryTranscriptCmd)
}

func printRecords(recs []*memory.Record) {
	if len(recs) == 0 {
		fmt.Println("No memories found.")
		return
	}
	for _, rec := range recs {
		fmt.Printf("%s\n", rec.ID)
		fmt.Printf("  Tier:    %s\n", rec.Tier)
		fmt.Printf("  Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("  Content: %s\n", rec.Content)
		fmt.Println()
	}
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	recs, err := rt.manager.Memories()
	if err != nil {
		return err
	}
	printRecords(recs)
	return nil
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	limit := 10
	if len(args) == 2 {
		limit, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid limit: %s", args[1])
		}
	}

	recs, err := rt.manager.Search(args[0], limit)
	if err != nil {
		return err
	}
	printRecords(recs)
	return nil
}

func runMemoryShow(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	rec, err := rt.manager.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("ID:           %s\n", rec.ID)
	fmt.Printf("User:         %s\n", rec.UserID)
	fmt.Printf("Conversation: %s\n", rec.ConversationID)
	fmt.Printf("Tier:         %s\n", rec.Tier)
	fmt.Printf("Created:      %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:      %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Content:\n  %s\n", rec.Content)
	return nil
}

func runMemoryPromote(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	rec, err := rt.manager.Promote(args[0], memory.Tier(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("Promoted to %s tier (%s)\n", rec.Tier, rec.ID)
	return nil
}

func runMemoryForget(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	ok, err := rt.manager.Forget(args[0])
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No such memory.")
		return nil
	}
	fmt.Println("Forgotten.")
	return nil
}

func runMemoryStats(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	stats, err := rt.manager.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Memories for %s\n", rt.manager.UserID())
	fmt.Println("-------------------")
	for _, tier := range memory.Tiers() {
		fmt.Printf("  %-6s %d\n", tier, stats.PerTier[tier])
	}
	fmt.Printf("  total  %d across %d conversations\n", stats.Total, stats.Conversations)
	return nil
}

func runMemoryTranscript(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	tr, err := rt.manager.Transcript(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Conversation %s (%s)\n\n", tr.ConversationID, tr.CreatedAt.Format("2006-01-02 15:04"))
	for _, msg := range tr.Messages {
		fmt.Printf("%s: %s\n\n", msg.Role, msg.Content)
	}
	return nil
}
