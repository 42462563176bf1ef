package app

import (
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/ironsheep/truck-parking-mcp/internal/config"
	"github.com/ironsheep/truck-parking-mcp/internal/tiles"
)

func TestBuild(t *testing.T) {
	is := is.New(t)

	cfg, err := config.Load()
	is.NoErr(err)

	c, cleanup, err := Build(cfg, zerolog.Nop())
	is.NoErr(err)
	defer cleanup()

	is.True(c.Analyzer != nil)
	is.Equal(c.Fetcher.Config(), cfg.Imagery)
	_, ok := c.Cache.(*tiles.MemoryCache)
	is.True(ok)
}

func TestNewCache(t *testing.T) {
	is := is.New(t)

	c, cleanup, err := NewCache(config.CacheConfig{Backend: config.CacheNone}, zerolog.Nop())
	is.NoErr(err)
	cleanup()
	_, ok := c.(tiles.NopCache)
	is.True(ok)

	_, _, err = NewCache(config.CacheConfig{Backend: "disk"}, zerolog.Nop())
	is.True(err != nil)
}
