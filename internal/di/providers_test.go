package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/handler/api"
	"ETFAdvisor/pkg/cache"
	"ETFAdvisor/pkg/config"
	"ETFAdvisor/pkg/logger"
)

func TestProvideEngineAndUniverse(t *testing.T) {
	cfg := config.Default()

	engine, err := ProvideEngine(cfg)
	require.NoError(t, err)
	require.NotNil(t, engine)

	universe := ProvideUniverse(cfg)
	assert.Len(t, universe.List(), len(config.DefaultUniverse()))
	in, err := universe.Get("0050")
	require.NoError(t, err)
	assert.Equal(t, "0050.TW", in.QuoteSymbol())
}

func TestProvideOptionalBackendsAreNilInterfaces(t *testing.T) {
	cfg := config.Default()

	producer, cleanup, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, producer)

	pub := ProvideKafkaPublisher(producer, cfg)
	assert.Nil(t, ProvideBarPublisher(pub))
	assert.Nil(t, ProvideEventPublisher(pub))
	assert.Nil(t, ProvideBarStoreInterface(nil))
}

func TestProvideScheduler(t *testing.T) {
	log := logger.Nop()
	mem := cache.NewMemoryCache()
	defer mem.Close()
	hub := api.NewMarketHub(log, nil)
	defer hub.Close()

	cfg := config.Default()
	cfg.Schedule.Enabled = false
	s, err := ProvideScheduler(cfg, log, mem, nil, nil, hub, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.Schedule.Enabled = true
	s, err = ProvideScheduler(cfg, log, mem, nil, nil, hub, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.ElementsMatch(t, []string{JobMarketFeed}, s.Jobs())
}
