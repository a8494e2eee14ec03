package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Al-aminI/memsient-go/api"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage knowledge-graph memories",
	Long: `A memory is an opaque server-side knowledge graph. Ingest text into
it, then query it in natural language.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your memories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		memories, err := client.Memory.List(cmd.Context(), user.ID)
		if err != nil {
			return err
		}
		if len(memories) == 0 {
			fmt.Println("No memories yet. Create one with 'memsient memory create <id>'.")
			return nil
		}
		for _, m := range memories {
			fmt.Printf("%-24s nodes=%-6d edges=%-6d ingestions=%-4d updated=%s\n",
				m.MemoryID, m.NodeCount, m.EdgeCount, m.IngestionCount,
				m.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var memoryCreateCmd = &cobra.Command{
	Use:   "create <memory-id>",
	Short: "Create an empty memory graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		memory, err := client.Memory.Create(cmd.Context(), user.ID, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created memory %s\n", memory.MemoryID)
		return nil
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <memory-id>",
	Short: "Delete a memory and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		deleted, err := client.Memory.Delete(cmd.Context(), args[0], user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted memory %s\n", deleted.MemoryID)
		return nil
	},
}

var (
	ingestAsync bool
	ingestWait  bool
)

var memoryIngestCmd = &cobra.Command{
	Use:   "ingest <memory-id> <text...>",
	Short: "Ingest text into a memory",
	Long: `Submits text for graph extraction. With --async the backend accepts
the job and returns a request id to poll; add --wait to poll until it
finishes.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		memoryID := args[0]
		content := strings.Join(args[1:], " ")

		if !ingestAsync {
			result, err := client.Memory.IngestText(cmd.Context(), user.ID, memoryID, content)
			if err != nil {
				return err
			}
			fmt.Printf("Ingested: %d nodes, %d edges (%.0f ms)\n",
				result.NodesCreated, result.EdgesCreated, result.ProcessingTimeMS)
			return nil
		}

		accepted, err := client.Memory.IngestTextAsync(cmd.Context(), user.ID, memoryID, content)
		if err != nil {
			return err
		}
		fmt.Printf("Accepted: request %s\n", accepted.RequestID)
		if !ingestWait {
			fmt.Printf("Poll with 'memsient memory status %s'\n", accepted.RequestID)
			return nil
		}
		status, err := client.Memory.PollIngest(cmd.Context(), accepted.RequestID, time.Second)
		if err != nil {
			return err
		}
		printIngestStatus(status)
		return nil
	},
}

var memoryStatusCmd = &cobra.Command{
	Use:   "status <request-id>",
	Short: "Show the state of an async ingestion job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		status, err := client.Memory.IngestStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printIngestStatus(status)
		return nil
	},
}

var (
	queryTopK   int
	queryAnswer bool
	queryNoCtx  bool
)

var memoryQueryCmd = &cobra.Command{
	Use:   "query <memory-id> <question...>",
	Short: "Query a memory in natural language",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		includeContext := !queryNoCtx
		result, err := client.Memory.Query(cmd.Context(), user.ID, args[0], strings.Join(args[1:], " "), &api.QueryOptions{
			TopK:           queryTopK,
			IncludeContext: &includeContext,
			IncludeAnswer:  &queryAnswer,
		})
		if err != nil {
			return err
		}
		if result.Answer != "" {
			fmt.Printf("Answer: %s\n", result.Answer)
		}
		fmt.Printf("Confidence: %.2f\n", result.Confidence)
		for _, chunk := range result.ContextChunks {
			fmt.Printf("  [%.2f] %s\n", chunk.RelevanceScore, chunk.Content)
		}
		return nil
	},
}

func printIngestStatus(status *api.IngestStatus) {
	fmt.Printf("Request %s: %s\n", status.RequestID, status.Status)
	switch status.Status {
	case api.IngestCompletedState:
		fmt.Printf("  %d nodes, %d edges (%.0f ms)\n",
			status.NodesCreated, status.EdgesCreated, status.ProcessingTimeMS)
	case api.IngestFailedState:
		fmt.Printf("  error: %s\n", status.Error)
	}
}

func init() {
	memoryIngestCmd.Flags().BoolVar(&ingestAsync, "async", false, "submit as a background job")
	memoryIngestCmd.Flags().BoolVar(&ingestWait, "wait", false, "with --async, poll until the job finishes")
	memoryQueryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of chunks to retrieve (backend default 10)")
	memoryQueryCmd.Flags().BoolVar(&queryAnswer, "answer", false, "generate a natural-language answer")
	memoryQueryCmd.Flags().BoolVar(&queryNoCtx, "no-context", false, "omit context chunks from the result")

	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryCreateCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryIngestCmd)
	memoryCmd.AddCommand(memoryStatusCmd)
	memoryCmd.AddCommand(memoryQueryCmd)
	rootCmd.AddCommand(memoryCmd)
}
