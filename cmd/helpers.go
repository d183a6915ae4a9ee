package cmd

import (
	"fmt"

	"github.com/leadwatch/leadwatch/internal/actions"
	"github.com/leadwatch/leadwatch/internal/config"
	"github.com/leadwatch/leadwatch/internal/mcp"
	"github.com/leadwatch/leadwatch/internal/ratelimit"
)

// loadLocation resolves the location to operate on: the named one, or
// the first configured when name is empty.
func loadLocation(name string) (config.Config, config.Location, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, config.Location{}, err
	}
	if name == "" {
		return cfg, cfg.Locations[0], nil
	}
	loc, ok := cfg.LocationByName(name)
	if !ok {
		return config.Config{}, config.Location{}, fmt.Errorf("location %q is not configured", name)
	}
	return cfg, loc, nil
}

// newProtocolClient builds the MCP client for one location.
func newProtocolClient(cfg config.Config, loc config.Location) *mcp.Client {
	return mcp.NewClient(mcp.Config{
		Endpoint:      cfg.Endpoint(),
		Token:         loc.Token,
		LocationID:    loc.LocationID,
		ClientName:    "leadwatch",
		ClientVersion: rootCmd.Version,
	})
}

// newService wires the full stack for one location: protocol client,
// rate limiter, retry policy, façade.
func newService(cfg config.Config, loc config.Location) (*actions.Service, *mcp.Client) {
	client := newProtocolClient(cfg, loc)
	limiter := ratelimit.New(0, 0, 0)
	return actions.NewService(client, limiter, nil), client
}
