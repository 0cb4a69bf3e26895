/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package client

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// ErrMissingURL is returned when no back-end URL is configured.
var ErrMissingURL = errors.New("back-end url is not configured")

// Config holds the connection settings, read from the environment.
type Config struct {
	// URL is the versioned API root of the back-end, e.g. https://openeo.example.org/openeo/1.2
	URL string `env:"OPENEO_BACKEND_URL"`
	// Token is sent as bearer token, including its authentication method prefix, e.g. "basic//abc".
	Token         string        `env:"OPENEO_ACCESS_TOKEN"`
	Timeout       time.Duration `env:"OPENEO_TIMEOUT,default=30s"`
	StrictCatalog bool          `env:"OPENEO_STRICT,default=false"`
	LogLevel      string        `env:"OPENEO_LOG_LEVEL,default=info"`
}

// LoadConfig reads the configuration from the process environment. Variables missing from the
// environment are taken from the given dotenv files, if any.
func LoadConfig(dotenvFiles ...string) (*Config, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if len(dotenvFiles) > 0 {
		fileVars, err := godotenv.Read(dotenvFiles...)
		if err != nil {
			return nil, fmt.Errorf("read dotenv files: %w", err)
		}
		for k, v := range fileVars {
			if _, ok := es[k]; !ok {
				es[k] = v
			}
		}
	}
	return ConfigFromEnvSet(es)
}

// ConfigFromEnvSet reads the configuration from es.
func ConfigFromEnvSet(es env.EnvSet) (*Config, error) {
	cfg := &Config{}
	if err := env.Unmarshal(es, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	return cfg, nil
}
