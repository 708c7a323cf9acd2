package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/compass-oss/compass/internal/memory"
	"github.com/compass-oss/compass/internal/provider"
	"github.com/compass-oss/compass/internal/telemetry"
)

const coachSystemPrompt = `You are a thoughtful life coach. You help people reflect on their
goals, habits, and challenges with warmth and without judgment. Keep
responses concise and grounded in what the person has actually said.`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive coaching session",
	Long: `Start an interactive coaching session.

Memories from earlier sessions are woven into the conversation. In-session
commands:

  /remember <text>   store text as a memory immediately
  /memories          list your stored memories
  /context           show the memory context the coach sees
  exit, quit         end the session (and remember it)`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	conversationID := rt.manager.StartConversation("")
	trace := telemetry.NewTraceContext(conversationID).
		WithUser(rt.manager.UserID()).
		WithOperation("chat")
	ctx := telemetry.ContextWithTrace(context.Background(), trace)
	logger := rt.logger.WithTrace(ctx)
	logger.Info("chat session started")

	fmt.Printf("compass coaching session (conversation %s)\n", conversationID)
	fmt.Println("Type 'exit' to end the session.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			break
		}
		if handled, err := handleChatCommand(rt, input); handled {
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			continue
		}

		rt.manager.AddMessage(memory.RoleUser, input)

		// Capture memory-worthy statements from the turn; a failure here
		// never blocks the reply.
		if _, err := rt.manager.CaptureFacts(input); err != nil {
			logger.Warn("fact capture failed", "error", err)
		}

		system := coachSystemPrompt
		if memCtx := rt.manager.MemoryContext(conversationID); memCtx != "" {
			system += "\n\n" + memCtx
		}

		reply, err := rt.gen.Generate(ctx, &provider.GenerateRequest{
			Model:  rt.cfg.Provider.Model,
			System: system,
			Prompt: input,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}

		rt.manager.AddMessage(memory.RoleAssistant, reply)
		fmt.Printf("\ncoach> %s\n\n", reply)
	}

	memID, err := rt.manager.EndConversation(ctx, true)
	if err != nil {
		return err
	}
	if memID != "" {
		fmt.Printf("\nSession remembered (%s)\n", memID)
	} else {
		fmt.Println("\nSession ended.")
	}
	return nil
}

func handleChatCommand(rt *runtime, input string) (bool, error) {
	switch {
	case strings.HasPrefix(input, "/remember "):
		content := strings.TrimSpace(strings.TrimPrefix(input, "/remember "))
		id, err := rt.manager.CreateMemoryNow(content, memory.TierShort)
		if err != nil {
			return true, err
		}
		fmt.Printf("Remembered (%s)\n", id)
		return true, nil

	case input == "/memories":
		recs, err := rt.manager.Memories()
		if err != nil {
			return true, err
		}
		if len(recs) == 0 {
			fmt.Println("No memories yet.")
			return true, nil
		}
		for _, rec := range recs {
			fmt.Printf("  [%s] %s\n", rec.Tier, rec.Content)
		}
		return true, nil

	case input == "/context":
		memCtx := rt.manager.MemoryContext(rt.manager.ActiveConversation())
		if memCtx == "" {
			fmt.Println("No memory context yet.")
		} else {
			fmt.Println(memCtx)
		}
		return true, nil
	}
	return false, nil
}
