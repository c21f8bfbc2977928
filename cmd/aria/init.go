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
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zydee3/aria/internal/bootstrap"
	"github.com/zydee3/aria/internal/errors"
)

// runInit executes the 'init' CLI command, creating the .aria/ state
// directory and a default config.yaml for the current repository.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//   - --llm-provider: LLM provider for summary generation (openai, anthropic, none)
//   - --llm-api-key: API key for the LLM provider
//   - --embeddings-url: Embedding service base URL
//   - --no-hook: Skip git hook installation
//   - --hook: Install git hook without prompting
//
// Examples:
//
//	aria init                              Interactive setup
//	aria init -y                           Use all defaults
//	aria init --llm-provider openai -y     Non-interactive with an LLM configured
//	aria init --hook                       Initialize and install the git hook
type initFlags struct {
	force, nonInteractive, noHook, withHook bool
	llmProvider, llmAPIKey, embeddingsURL   string
}

func runInit(args []string) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot determine current directory", err.Error(), "this is a bug, please report it", err), false)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		errors.FatalError(errors.NewConfigError("Configuration already exists", configPath+" already exists", "use --force to overwrite", nil), false)
	}

	cfg := createInitConfig(flags)
	reader := bufio.NewReader(os.Stdin)

	if !flags.nonInteractive {
		runInteractiveConfig(reader, cfg)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if _, err := bootstrap.InitProject(bootstrap.ProjectConfig{RootDir: cwd}, logger); err != nil {
		errors.FatalError(errors.NewConfigError("Cannot initialize project state", err.Error(), "check permissions on "+cwd, err), false)
	}

	if err := SaveConfig(cfg, configPath); err != nil {
		errors.FatalError(err, false)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)

	handleHookInstallation(reader, flags)
	printNextSteps(flags.noHook)
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.llmProvider, "llm-provider", "", "LLM provider for summaries (openai, anthropic, none)")
	fs.StringVar(&f.llmAPIKey, "llm-api-key", "", "LLM API key")
	fs.StringVar(&f.embeddingsURL, "embeddings-url", "", "Embedding service base URL")
	fs.BoolVar(&f.noHook, "no-hook", false, "Skip git hook installation")
	fs.BoolVar(&f.withHook, "hook", false, "Install git hook without prompting (for scripts)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aria init [options]

Creates .aria/config.yaml and the .aria/ state directory.

Examples:
  aria init                          Interactive setup
  aria init -y                       Non-interactive with defaults
  aria init --llm-provider openai -y
  aria init --hook                   Also install the git post-commit hook

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(f initFlags) *Config {
	cfg := DefaultConfig()
	if f.llmProvider != "" {
		cfg.LLM.Provider = f.llmProvider
		cfg.Features.Summaries = f.llmProvider != "none"
	}
	if f.llmAPIKey != "" {
		cfg.LLM.APIKey = f.llmAPIKey
	}
	if f.embeddingsURL != "" {
		cfg.Embeddings.ServiceURL = f.embeddingsURL
		cfg.Features.Embeddings = true
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("aria Project Configuration")
	fmt.Println("==========================")
	fmt.Println()

	fmt.Println("LLM providers: openai, anthropic, none")
	cfg.LLM.Provider = prompt(reader, "LLM provider", cfg.LLM.Provider)
	cfg.Features.Summaries = cfg.LLM.Provider != "none" && cfg.LLM.Provider != ""
	if cfg.Features.Summaries {
		cfg.LLM.Model = prompt(reader, "LLM model", cfg.LLM.Model)
		cfg.LLM.APIKey = prompt(reader, "LLM API key (optional, can also be set via ARIA_LLM_API_KEY)", cfg.LLM.APIKey)
	}

	fmt.Println()
	embeddingsAnswer := prompt(reader, "Enable semantic search via an embedding service? (y/N)", "n")
	embeddingsAnswer = strings.ToLower(strings.TrimSpace(embeddingsAnswer))
	cfg.Features.Embeddings = embeddingsAnswer == "y" || embeddingsAnswer == "yes"
	if cfg.Features.Embeddings {
		cfg.Embeddings.ServiceURL = prompt(reader, "Embedding service URL", cfg.Embeddings.ServiceURL)
		cfg.Embeddings.Model = prompt(reader, "Embedding model", cfg.Embeddings.Model)
	}
	fmt.Println()
}

func handleHookInstallation(reader *bufio.Reader, f initFlags) {
	if f.noHook {
		return
	}
	shouldInstall := f.withHook
	if !f.withHook && !f.nonInteractive {
		fmt.Println()
		hookAnswer := prompt(reader, "Install git hook for auto-indexing? (Y/n)", "y")
		hookAnswer = strings.ToLower(strings.TrimSpace(hookAnswer))
		shouldInstall = hookAnswer != "n" && hookAnswer != "no"
	} else if f.nonInteractive {
		shouldInstall = true
	}

	if !shouldInstall {
		return
	}
	gitDir, err := findGitDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot find .git directory: %v\n", err)
		return
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")
	if err := installHook(hookPath, false); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot install git hook: %v\n", err)
	} else {
		fmt.Printf("Git hook installed: %s\n", hookPath)
	}
}

func printNextSteps(noHook bool) {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .aria/config.yaml if needed")
	fmt.Println("  2. Run 'aria index' to index your repository")
	fmt.Println("  3. Run 'aria query list' to see what was found")
	if noHook {
		fmt.Println()
		fmt.Println("Tip: run 'aria hooks' to enable auto-indexing on each commit")
	}
}

// prompt displays an interactive prompt and reads user input from stdin.
//
// If the user presses Enter without providing input, the defaultValue is
// returned.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .aria/ to the project's .gitignore file if not
// already present. If .gitignore does not exist or cannot be modified,
// the function silently returns without error.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		return
	}

	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == ".aria/" || line == ".aria" || line == "/.aria/" || line == "/.aria" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}

	_, _ = f.WriteString("\n# aria state directory\n.aria/\n")
	fmt.Println("Added .aria/ to .gitignore")
}
