package envconf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type nested struct {
	Timeout time.Duration `env:"ENVCONF_TEST_TIMEOUT" default:"3s"`
	Brokers []string      `env:"ENVCONF_TEST_BROKERS" default:""`
}

type testConfig struct {
	Port   uint16        `env:"ENVCONF_TEST_PORT"`
	Level  zapcore.Level `env:"ENVCONF_TEST_LEVEL" default:"info"`
	Name   string        `env:"ENVCONF_TEST_NAME" default:"wallet"`
	Nested nested
}

func TestLoad_RequiredAndDefaults(t *testing.T) {
	t.Setenv("ENVCONF_TEST_PORT", "8080")
	t.Setenv("ENVCONF_TEST_BROKERS", "kafka-1:9092, kafka-2:9092,,")

	cfg := new(testConfig)
	require.NoError(t, Load(cfg))

	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "wallet", cfg.Name)
	assert.Equal(t, 3*time.Second, cfg.Nested.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Nested.Brokers)
}

func TestLoad_EmptyDefaultSliceIsEmpty(t *testing.T) {
	t.Setenv("ENVCONF_TEST_PORT", "1")

	cfg := new(testConfig)
	require.NoError(t, Load(cfg))

	assert.Empty(t, cfg.Nested.Brokers)
}

func TestLoad_MissingRequired(t *testing.T) {
	cfg := new(testConfig)

	err := Load(cfg)
	require.ErrorIs(t, err, ErrMissingRequired)
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	require.Error(t, Load(testConfig{}))
	require.Error(t, Load(nil))
}
