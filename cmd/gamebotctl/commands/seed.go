package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jackc/pgx/v4"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
	"telegram-game-bot/internal/infra/db/postgres"
)

// contentFile is the layout of the seed YAML.
type contentFile struct {
	Items []model.ContentItem `yaml:"items"`
}

func seedCmd() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load game content from a YAML file",
		Long: `seed inserts questions, words and puzzles for the games.
Game types that already have content are skipped unless --force is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readContent(path)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}

			repo := postgres.NewContentRepo(pool)
			tm := postgres.NewTxManager(pool)
			added, err := seedContent(ctx, tm, repo, items, force)
			if err != nil {
				return err
			}
			printSeedSummary(cmd.OutOrStdout(), added)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "content.yaml", "content YAML file")
	cmd.Flags().BoolVar(&force, "force", false, "insert even when the game type already has content")
	return cmd
}

func readContent(path string) ([]model.ContentItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return parseContent(data)
}

func parseContent(data []byte) ([]model.ContentItem, error) {
	var f contentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	for i, it := range f.Items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("item %d (%s %q): %w", i, it.GameType, it.Question, err)
		}
	}
	return f.Items, nil
}

type contentStore interface {
	Save(ctx context.Context, tx repository.Tx, item *model.ContentItem) error
	CountByType(ctx context.Context, tx repository.Tx) (map[model.GameType]int, error)
}

// seedContent saves items in one transaction and returns how many were added
// per game type. A type present in the database is left alone unless force.
func seedContent(ctx context.Context, tm repository.TransactionManager, store contentStore, items []model.ContentItem, force bool) (map[model.GameType]int, error) {
	added := make(map[model.GameType]int)
	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		existing, err := store.CountByType(ctx, tx)
		if err != nil {
			return err
		}
		for i := range items {
			it := items[i]
			if !force && existing[it.GameType] > 0 {
				continue
			}
			if err := store.Save(ctx, tx, &it); err != nil {
				return fmt.Errorf("save %s item: %w", it.GameType, err)
			}
			added[it.GameType]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func printSeedSummary(w io.Writer, added map[model.GameType]int) {
	if len(added) == 0 {
		fmt.Fprintln(w, "content already present. No changes.")
		return
	}
	types := make([]string, 0, len(added))
	for t := range added {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  - %s: %d added\n", t, added[model.GameType(t)])
	}
}
