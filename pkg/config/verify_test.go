package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		require.NoError(t, VerifyAgainstEmbeddedSchema(Default()))
	})

	t.Run("missing required field", func(t *testing.T) {
		cfg := Default()
		cfg.Team.ID = ""
		err := VerifyAgainstEmbeddedSchema(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "team.id is required")
	})
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"feed url", func(c *Config) { c.Feed.URL = "" }, "feed.url is required"},
		{"timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "http.timeout is required"},
		{"lookahead", func(c *Config) { c.Announce.Lookahead = 0 }, "announce.lookahead is required"},
		{"attempts", func(c *Config) { c.Webhook.Attempts = 0 }, "webhook.attempts is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := validateRequiredFields(cfg)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEmbeddedSchemaMatchesConfig(t *testing.T) {
	// embedded schema.json has to be regenerated when config sections change
	generated, err := GenerateSchema()
	require.NoError(t, err)
	data, err := json.Marshal(generated)
	require.NoError(t, err)

	var gen, embedded struct {
		Defs map[string]struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal(data, &gen))
	require.NoError(t, json.Unmarshal([]byte(embeddedSchema), &embedded))

	for name, def := range gen.Defs {
		if len(def.Properties) == 0 {
			continue
		}
		emb, ok := embedded.Defs[name]
		require.True(t, ok, "definition %s missing in schema.json", name)
		for prop := range def.Properties {
			_, ok := emb.Properties[prop]
			assert.True(t, ok, "property %s.%s missing in schema.json", name, prop)
		}
	}
}
