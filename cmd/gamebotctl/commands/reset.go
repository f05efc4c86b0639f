package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	red "telegram-game-bot/internal/infra/redis"
)

func resetGamesCmd() *cobra.Command {
	var chatID int64
	cmd := &cobra.Command{
		Use:   "reset-games",
		Short: "Drop active game state from Redis",
		Long: `reset-games removes stuck games so the chats can start new ones.
Scores already awarded are kept. Use --chat to reset a single chat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := red.NewClient(cmd.Context(), &cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()

			return resetGames(cmd.Context(), cmd.OutOrStdout(), red.NewGameRepo(client, 0), chatID)
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "only reset this chat")
	return cmd
}

type gameStore interface {
	ActiveChats(ctx context.Context) ([]int64, error)
	Delete(ctx context.Context, chatID int64) error
}

func resetGames(ctx context.Context, w io.Writer, store gameStore, only int64) error {
	chats := []int64{only}
	if only == 0 {
		var err error
		if chats, err = store.ActiveChats(ctx); err != nil {
			return fmt.Errorf("list active games: %w", err)
		}
	}
	for _, id := range chats {
		if err := store.Delete(ctx, id); err != nil {
			return fmt.Errorf("reset chat %d: %w", id, err)
		}
		logger.Info().Int64("chat_id", id).Msg("game state removed")
	}
	fmt.Fprintf(w, "%d game(s) reset\n", len(chats))
	return nil
}
