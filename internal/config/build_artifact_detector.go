// Build artifact detection for the two languages this indexer parses:
// it reads tsconfig.json/vite.config.* for TypeScript output directories
// and Cargo.toml for a custom Rust target-dir, adding both as exclusions.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds language-specific build output directories
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans for build configuration files and extracts output directories
// Returns glob patterns to exclude (e.g., "**/dist/**", "**/target/**")
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string

	patterns = append(patterns, bad.detectTypeScriptOutputs()...)
	patterns = append(patterns, bad.detectRustOutputs()...)

	return patterns
}

// detectTypeScriptOutputs finds TypeScript build outputs
func (bad *BuildArtifactDetector) detectTypeScriptOutputs() []string {
	var patterns []string

	// Check package.json for build scripts and output directories
	packageJSON := filepath.Join(bad.projectRoot, "package.json")
	if data, err := os.ReadFile(packageJSON); err == nil {
		var pkg map[string]interface{}
		if json.Unmarshal(data, &pkg) == nil {
			// Check for common output directory configurations
			if scripts, ok := pkg["scripts"].(map[string]interface{}); ok {
				// Look for build output hints in scripts
				for _, script := range scripts {
					if scriptStr, ok := script.(string); ok {
						// Extract common output directories from build scripts
						if strings.Contains(scriptStr, "--outDir") || strings.Contains(scriptStr, "-outDir") {
							// Parse outDir from command line
							parts := strings.Fields(scriptStr)
							for i, part := range parts {
								if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
									outDir := strings.Trim(parts[i+1], "\"'")
									patterns = append(patterns, "**/"+outDir+"/**")
								}
							}
						}
					}
				}
			}

			// Check for explicit build configuration
			if buildConfig, ok := pkg["build"].(map[string]interface{}); ok {
				if outDir, ok := buildConfig["outDir"].(string); ok {
					patterns = append(patterns, "**/"+outDir+"/**")
				}
			}
		}
	}

	// Check tsconfig.json
	tsconfigJSON := filepath.Join(bad.projectRoot, "tsconfig.json")
	if data, err := os.ReadFile(tsconfigJSON); err == nil {
		var tsconfig map[string]interface{}
		if json.Unmarshal(data, &tsconfig) == nil {
			if compilerOptions, ok := tsconfig["compilerOptions"].(map[string]interface{}); ok {
				if outDir, ok := compilerOptions["outDir"].(string); ok {
					patterns = append(patterns, "**/"+outDir+"/**")
				}
			}
		}
	}

	// Check vite.config.js/ts for output directory (common pattern: build.outDir)
	for _, viteConfig := range []string{"vite.config.js", "vite.config.ts"} {
		viteConfigPath := filepath.Join(bad.projectRoot, viteConfig)
		if data, err := os.ReadFile(viteConfigPath); err == nil {
			content := string(data)
			// Simple heuristic: look for outDir: 'dist' or outDir: "dist"
			if strings.Contains(content, "outDir") {
				// Extract directory name (simple regex-free approach)
				if idx := strings.Index(content, "outDir"); idx != -1 {
					substr := content[idx+6:] // Skip "outDir"
					if colonIdx := strings.Index(substr, ":"); colonIdx != -1 {
						substr = substr[colonIdx+1:]
						// Find quoted string
						for _, quote := range []string{"'", "\""} {
							if strings.Contains(substr, quote) {
								parts := strings.Split(substr, quote)
								if len(parts) >= 2 {
									dirName := strings.TrimSpace(parts[1])
									if dirName != "" {
										patterns = append(patterns, "**/"+dirName+"/**")
									}
								}
								break
							}
						}
					}
				}
			}
		}
	}

	return patterns
}

// detectRustOutputs finds Rust build outputs (Cargo.toml)
func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	var patterns []string

	cargoTOML := filepath.Join(bad.projectRoot, "Cargo.toml")
	if data, err := os.ReadFile(cargoTOML); err == nil {
		var cargo map[string]interface{}
		if toml.Unmarshal(data, &cargo) == nil {
			// Check for custom target directory
			if profile, ok := cargo["profile"].(map[string]interface{}); ok {
				if release, ok := profile["release"].(map[string]interface{}); ok {
					if targetDir, ok := release["target-dir"].(string); ok {
						patterns = append(patterns, "**/"+targetDir+"/**")
					}
				}
			}

			// Rust always outputs to target/ by default
			// (already in default exclusions, but being explicit)
		}
	}

	return patterns
}

// DeduplicatePatterns removes duplicate exclusion patterns
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
