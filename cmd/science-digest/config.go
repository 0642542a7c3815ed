// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/science-digest/internal/catalog"
	"github.com/pdiddy/science-digest/internal/generate"
	"github.com/pdiddy/science-digest/internal/secrets"
	"github.com/pdiddy/science-digest/pkg/types"
)

// Configuration keys. Environment variables use the SCIENCE_DIGEST_ prefix
// with dots replaced by underscores, e.g. SCIENCE_DIGEST_FETCH_BATCH_SIZE.
const (
	keyLogLevel    = "log_level"
	keySecretsDir  = "secrets_dir"
	keyQueueDir    = "paths.queue_dir"
	keyArticlesDir = "paths.articles_dir"
	keyIndexDir    = "paths.index_dir"
	keySyllabus    = "paths.syllabus"

	keyFetchTimeout    = "fetch.timeout"
	keyFetchUserAgent  = "fetch.user_agent"
	keyFetchBatchSize  = "fetch.batch_size"
	keyFetchInterval   = "fetch.interval"
	keyFetchMaxResults = "fetch.max_results"
	keyNCBIEmail       = "fetch.ncbi_email"

	keyModel       = "generation.model"
	keyBaseURL     = "generation.base_url"
	keyTemperature = "generation.temperature"
	keyMaxRetries  = "generation.max_retries"
	keyItemDelay   = "generation.item_delay"
	keySettleDelay = "generation.settle_delay"

	keyServerAddr     = "server.addr"
	keyStrictGrading  = "server.strict_grading"
	keyAllowedOrigins = "server.allowed_origins"
	keySessionSecret  = "server.session_secret"
)

func setDefaults() {
	viper.SetDefault(keyLogLevel, "info")
	viper.SetDefault(keySecretsDir, ".secrets")
	viper.SetDefault(keyQueueDir, "raw_queue")
	viper.SetDefault(keyArticlesDir, "articles")
	viper.SetDefault(keyIndexDir, "index")
	viper.SetDefault(keySyllabus, "")

	viper.SetDefault(keyFetchTimeout, "60s")
	viper.SetDefault(keyFetchUserAgent, "science-digest/"+version)
	viper.SetDefault(keyFetchBatchSize, 20)
	viper.SetDefault(keyFetchInterval, "2s")
	viper.SetDefault(keyFetchMaxResults, 3)

	viper.SetDefault(keyModel, generate.DefaultModel)
	viper.SetDefault(keyBaseURL, generate.DefaultBaseURL)
	viper.SetDefault(keyTemperature, 0.4)
	viper.SetDefault(keyMaxRetries, 2)
	viper.SetDefault(keyItemDelay, "3s")
	viper.SetDefault(keySettleDelay, "2s")

	viper.SetDefault(keyServerAddr, ":8501")
	viper.SetDefault(keyStrictGrading, false)
	viper.SetDefault(keyAllowedOrigins, []string{})
}

// loadConfig assembles the stage configs from viper and the loaded secrets.
// Secrets fill in only what the config file and environment left empty.
func loadConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Paths: types.PathsConfig{
			QueueDir:    viper.GetString(keyQueueDir),
			ArticlesDir: viper.GetString(keyArticlesDir),
			IndexDir:    viper.GetString(keyIndexDir),
			Syllabus:    viper.GetString(keySyllabus),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration(keyFetchTimeout),
				UserAgent: viper.GetString(keyFetchUserAgent),
			},
			BatchSize:  viper.GetInt(keyFetchBatchSize),
			Interval:   viper.GetDuration(keyFetchInterval),
			MaxResults: viper.GetInt(keyFetchMaxResults),
			NCBIEmail:  secretDefault(secrets.NCBIEmail, viper.GetString(keyNCBIEmail)),
			NCBIAPIKey: secretDefault(secrets.NCBIAPIKey, ""),
		},
		Generation: types.GenerationConfig{
			AIConfig: types.AIConfig{
				Model:       viper.GetString(keyModel),
				BaseURL:     viper.GetString(keyBaseURL),
				APIKey:      secretDefault(secrets.GeminiAPIKey, ""),
				Temperature: float32(viper.GetFloat64(keyTemperature)),
				MaxRetries:  viper.GetInt(keyMaxRetries),
			},
			ItemDelay:   viper.GetDuration(keyItemDelay),
			SettleDelay: viper.GetDuration(keySettleDelay),
		},
		Server: types.ServerConfig{
			Addr:           viper.GetString(keyServerAddr),
			StrictGrading:  viper.GetBool(keyStrictGrading),
			AllowedOrigins: viper.GetStringSlice(keyAllowedOrigins),
			SessionSecret:  secretDefault(secrets.SessionSecret, viper.GetString(keySessionSecret)),
		},
		LogLevel: viper.GetString(keyLogLevel),
	}
}

// secretDefault returns fallback when set, otherwise the secret for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.Lookup(key)
}

// openCatalog opens the SQLite catalog under the configured index directory.
func openCatalog(cfg types.PipelineConfig) (*catalog.Catalog, error) {
	return catalog.Open(cfg.Paths.IndexDir)
}
