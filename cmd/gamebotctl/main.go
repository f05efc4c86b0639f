package main

import (
	"os"

	"telegram-game-bot/cmd/gamebotctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
