// Package commands implements the gamebotctl subcommands:
//
//	verify       assert the pinned Telegram client is linked and usable
//	migrate      apply the Postgres schema
//	seed         load game content from a YAML file
//	reset-games  drop stuck game state from Redis
//	version      print build information
//
// verify needs no configuration so it can run during the image build.
package commands
