// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zydee3/aria/internal/errors"
)

// runConfigCmd executes the 'config' CLI command: prints the effective
// configuration (config.yaml merged with environment-variable overrides)
// as YAML, with the API key redacted unless --show-secrets is passed.
//
// Flags:
//   - --show-secrets: include llm.api_key in the printed output
func runConfigCmd(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	showSecrets := fs.Bool("show-secrets", false, "Include the LLM API key in the output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aria config [options]

Prints the effective configuration: config.yaml merged with any
ARIA_* environment variable overrides.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	configPath, err := findConfigFile()
	if err != nil {
		errors.FatalError(err, false)
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, false)
	}

	if !*showSecrets && cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "********"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot render configuration", err.Error(), "this is a bug, please report it", err), false)
	}

	fmt.Printf("# %s\n", configPath)
	fmt.Print(string(data))
}
