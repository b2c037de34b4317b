// Package config declares the server's flags and environment knobs. A
// .env file in the working directory is picked up automatically.
package config

import (
	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Listen         string `help:"Game listen address." env:"LISTEN_ADDR" default:":1998"`
	ResourceListen string `help:"Resource pack HTTP address." env:"RESOURCE_ADDR" default:":8080"`
	ResourceDir    string `help:"Directory with the card images and pack metadata." env:"RESOURCE_DIR" default:"./resources/cards" type:"path"`
	ResourceName   string `help:"Resource pack version name." env:"RESOURCE_NAME" default:"default"`
	ResourceLink   string `help:"Download link clients fetch the pack from." env:"RESOURCE_LINK" default:"http://localhost:8080/"`
	Debug          bool   `help:"Enable debug logging."`
}

func Parse() Config {
	var cfg Config
	kong.Parse(&cfg,
		kong.Name("imaginarium-server"),
		kong.Description("a party-game server for card matching rounds"),
		kong.UsageOnError(),
	)
	return cfg
}
