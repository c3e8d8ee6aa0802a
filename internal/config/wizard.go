package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// dataMarkers are file globs checked when suggesting input patterns.
var dataMarkers = []struct {
	Glob    string
	Pattern string
}{
	{"data/*.jsonl", "data/**/*.jsonl"},
	{"data/*.ndjson", "data/**/*.ndjson"},
	{"data/*.json", "data/**/*.json"},
	{"data/*.csv", "data/**/*.csv"},
	{"events/*.jsonl", "events/**/*.jsonl"},
	{"events/*.csv", "events/**/*.csv"},
	{"*.jsonl", "*.jsonl"},
	{"*.csv", "*.csv"},
}

// detectInputs checks the working directory for event files and
// suggests a matching glob.
func detectInputs() string {
	for _, m := range dataMarkers {
		matches, _ := filepath.Glob(m.Glob)
		if len(matches) > 0 {
			return m.Pattern
		}
	}
	return ""
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .ecomlens.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to ecomlens! Let's configure your project.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Input patterns, seeded by whatever event files are lying around.
	defaultInput := detectInputs()
	if defaultInput != "" {
		fmt.Printf("Detected event files matching: %s\n\n", defaultInput)
	} else {
		defaultInput = strings.Join(DefaultInputs, ",")
	}
	inputPrompt := promptui.Prompt{
		Label:   "Event file patterns (comma-separated globs)",
		Default: defaultInput,
	}
	inputStr, err := inputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("input patterns: %w", err)
	}
	cfg.Inputs = splitAndTrim(inputStr)

	// 2. Pattern definitions directory.
	patternsPrompt := promptui.Prompt{
		Label:   "Directory for custom pattern definitions",
		Default: cfg.PatternsDir,
	}
	cfg.PatternsDir, err = patternsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("patterns dir: %w", err)
	}

	// 3. Average order value. Blank keeps the observed-or-placeholder
	// behavior.
	aovPrompt := promptui.Prompt{
		Label:   "Average order value (blank to derive from purchase data)",
		Default: "",
		Validate: func(s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 {
				return fmt.Errorf("must be a non-negative number")
			}
			return nil
		},
	}
	aovStr, err := aovPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("average order value: %w", err)
	}
	if aovStr != "" {
		cfg.AOV, _ = strconv.ParseFloat(aovStr, 64)
	}

	// 4. Conversion rate.
	convPrompt := promptui.Prompt{
		Label:   "Baseline conversion rate (blank to derive from purchase data)",
		Default: "",
		Validate: func(s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 || v > 1 {
				return fmt.Errorf("must be a number between 0 and 1")
			}
			return nil
		},
	}
	convStr, err := convPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("conversion rate: %w", err)
	}
	if convStr != "" {
		cfg.ConversionRate, _ = strconv.ParseFloat(convStr, 64)
	}

	// 5. Alert webhook.
	webhookPrompt := promptui.Prompt{
		Label:   "Alert webhook URL (blank to disable)",
		Default: "",
	}
	cfg.AlertWebhookURL, err = webhookPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("alert webhook: %w", err)
	}

	// 6. Server port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		token := strings.TrimSpace(part)
		if token != "" {
			result = append(result, token)
		}
	}
	return result
}
