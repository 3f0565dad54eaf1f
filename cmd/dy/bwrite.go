package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/dynabatch/batch"
	"github.com/jacentio/dynabatch/store"
)

var (
	bwriteInput          string
	bwriteDryRun         bool
	bwriteUnprocessedOut string
)

var bwriteCmd = &cobra.Command{
	Use:   "bwrite",
	Short: "Apply a batch-write file",
	Long: `Apply a BatchWriteItem request file:

  {"Books": [{"PutRequest": {"Item": {"pk": {"S": "ichi"}}}},
             {"DeleteRequest": {"Key": {"pk": {"S": "ni"}}}}]}

The whole file is validated before anything is written. Writes are sent in
chunks of at most 25 requests and unprocessed items are retried with
backoff. On failure the entries that were not written are listed, and
--unprocessed-out saves them in the same format for a later run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		entries, err := readInput(bwriteInput, cmd.InOrStdin())
		if err != nil {
			return err
		}

		if bwriteDryRun {
			chunks, err := batch.Planner{}.Plan(entries)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), entries, chunks)
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		keys, err := tableKeys(ctx, s, entries)
		if err != nil {
			return err
		}

		err = runBatch(ctx, s, entries, keys)
		if err == nil {
			return nil
		}
		var be *batch.Error
		if errors.As(err, &be) {
			reportFailure(cmd.ErrOrStderr(), be, keys)
			if bwriteUnprocessedOut != "" {
				if werr := saveUnprocessed(bwriteUnprocessedOut, be); werr != nil {
					return errors.Join(err, werr)
				}
			}
		}
		return err
	},
}

func init() {
	f := bwriteCmd.Flags()
	f.StringVar(&bwriteInput, "input", "", `batch-write file ("-" for stdin)`)
	f.BoolVar(&bwriteDryRun, "dry-run", false, "validate and plan without writing")
	f.StringVar(&bwriteUnprocessedOut, "unprocessed-out", "", "on failure, write the entries that were not written to this file")
	_ = bwriteCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(bwriteCmd)
}

func readInput(path string, stdin io.Reader) ([]batch.Entry, error) {
	if path == "-" {
		return batch.ParseInput(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := batch.ParseInput(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// schemaSource is the part of store.Store that bwrite needs.
type schemaSource interface {
	DescribeKeys(ctx context.Context, table string) (store.KeySchema, error)
}

// tableKeys looks up the key attribute names of every table in entries.
func tableKeys(ctx context.Context, s schemaSource, entries []batch.Entry) (map[string][]string, error) {
	keys := make(map[string][]string)
	for _, e := range entries {
		if _, ok := keys[e.Table]; ok {
			continue
		}
		schema, err := s.DescribeKeys(ctx, e.Table)
		if err != nil {
			return nil, err
		}
		keys[e.Table] = schema.Names()
	}
	return keys, nil
}

func runBatch(ctx context.Context, w batch.Writer, entries []batch.Entry, keys map[string][]string) error {
	chunks, err := batch.Planner{Keys: keys}.Plan(entries)
	if err != nil {
		return err
	}
	logger.Info("planned batch write", "entries", len(entries), "chunks", len(chunks))
	return batch.NewExecutor(w, cfg.Policy, logger).Execute(ctx, chunks)
}

// writePlan prints the chunk layout of a dry run.
func writePlan(w io.Writer, entries []batch.Entry, chunks []batch.Chunk) error {
	if _, err := fmt.Fprintf(w, "%d entries in %d chunks\n", len(entries), len(chunks)); err != nil {
		return err
	}
	for _, c := range chunks {
		if _, err := fmt.Fprintf(w, "chunk %d: %d entries, %d bytes\n", c.Seq, len(c.Entries), c.Size); err != nil {
			return err
		}
	}
	return nil
}

// reportFailure lists the error kind and every entry that was not written.
func reportFailure(w io.Writer, be *batch.Error, keys map[string][]string) {
	fmt.Fprintf(w, "batch write failed: %v\n", be.Kind)
	if len(be.Completed) > 0 {
		fmt.Fprintf(w, "%d chunks completed\n", len(be.Completed))
	}
	for _, e := range be.Unprocessed {
		fmt.Fprintf(w, "  unprocessed: %s\n", e.Describe(keys[e.Table]))
	}
	for _, e := range be.NotAttempted {
		fmt.Fprintf(w, "  not attempted: %s\n", e.Describe(keys[e.Table]))
	}
}

func saveUnprocessed(path string, be *batch.Error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := batch.WriteInput(f, be.Failed()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
