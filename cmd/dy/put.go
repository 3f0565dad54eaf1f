package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacentio/dynabatch/attr"
	"github.com/jacentio/dynabatch/batch"
	"github.com/jacentio/dynabatch/store"
)

var (
	putItem string
	putSets []string
)

var putCmd = &cobra.Command{
	Use:   "put <pk> [sk]",
	Short: "Write one item",
	Long: `Write one item built from the key arguments and a plain JSON object.

JSON arrays become lists unless --set marks them as a set:

  dy put -t Books ichi --item '{"Tags":["a","b"],"Price":2}' --set Tags=SS

--set also accepts B to read a string attribute as base64 binary.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		table, err := requireTable()
		if err != nil {
			return err
		}

		hints, err := parseHints(putSets)
		if err != nil {
			return err
		}
		body, err := attr.FromJSONItem([]byte(putItem), hints)
		if err != nil {
			return fmt.Errorf("--item: %w", err)
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		schema, err := s.DescribeKeys(ctx, table)
		if err != nil {
			return err
		}
		key, err := store.KeyFromArgs(schema, args...)
		if err != nil {
			return err
		}
		item, err := mergeKey(key, body)
		if err != nil {
			return err
		}

		return writeOne(ctx, s, table, item)
	},
}

func init() {
	putCmd.Flags().StringVar(&putItem, "item", "{}", "item attributes as a plain JSON object")
	putCmd.Flags().StringArrayVar(&putSets, "set", nil, "read an attribute as a set or binary: name=SS|NS|BS|B")
	rootCmd.AddCommand(putCmd)
}

// parseHints reads --set values of the form name=TAG.
func parseHints(sets []string) (attr.Hints, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	hints := make(attr.Hints, len(sets))
	for _, s := range sets {
		name, tag, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: want name=SS|NS|BS|B", s)
		}
		kind, ok := attr.KindFromTag(tag)
		switch {
		case !ok:
			return nil, fmt.Errorf("--set %q: unknown type %q", s, tag)
		case kind != attr.KindStringSet && kind != attr.KindNumberSet &&
			kind != attr.KindBinarySet && kind != attr.KindBinary:
			return nil, fmt.Errorf("--set %q: type must be SS, NS, BS or B", s)
		}
		hints[name] = kind
	}
	return hints, nil
}

// mergeKey puts the key attributes first, then the body. A body attribute
// that repeats a key attribute must hold the same value.
func mergeKey(key, body *attr.Map) (*attr.Map, error) {
	item := attr.NewMap()
	var err error
	key.Range(func(name string, v attr.Value) bool {
		err = item.Set(name, v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	body.Range(func(name string, v attr.Value) bool {
		if kv, ok := key.Get(name); ok {
			if !attr.Equal(kv, v) {
				err = fmt.Errorf("--item: %s conflicts with the key argument", name)
			}
			return err == nil
		}
		err = item.Set(name, v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// writeOne sends a single put through the batch path.
func writeOne(ctx context.Context, w batch.Writer, table string, item *attr.Map) error {
	chunks, err := batch.Planner{}.Plan([]batch.Entry{{Table: table, Request: batch.Put(item)}})
	if err != nil {
		return err
	}
	return batch.NewExecutor(w, cfg.Policy, logger).Execute(ctx, chunks)
}
