package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// configFileName is the project-level KDL configuration file name.
const configFileName = ".oci.kdl"

// LoadKDL loads and merges configuration from root/.oci.kdl over the
// process-global ~/.oci.kdl (if present) over Default(root). A project with
// no KDL files at all gets Default(root) back unchanged.
func LoadKDL(root string) (*Config, error) {
	cfg := Default(root)

	if home := defaultHomeConfigPath(); home != "" {
		if err := mergeKDLFile(cfg, home, root); err != nil {
			return nil, err
		}
	}

	projectPath := filepath.Join(root, configFileName)
	if err := mergeKDLFile(cfg, projectPath, root); err != nil {
		return nil, err
	}

	return cfg, nil
}

func mergeKDLFile(cfg *Config, path, root string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyKDLDocument(cfg, doc, root)
	return nil
}

func applyKDLDocument(cfg *Config, doc *document.Document, root string) {
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) {
					cfg.Project.Root = resolveRoot(v, root)
				})
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "discovery":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size":
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Discovery.MaxFileSize = sz
						}
					} else if v, ok := firstIntArg(cn); ok {
						cfg.Discovery.MaxFileSize = int64(v)
					}
				case "follow_symlinks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Discovery.FollowSymlinks = b
					}
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Discovery.RespectGitignore = b
					}
				case "global_ignore_file":
					if s, ok := firstStringArg(cn); ok {
						cfg.Discovery.GlobalIgnoreFile = s
					}
				}
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "watch_mode":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.WatchMode = b
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.WatchDebounceMs = v
					}
				case "parallel_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.ParallelWorkers = v
					}
				case "cache_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Index.CacheDirName = s
					}
				}
			}
		case "bm25":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "k1":
					if v, ok := firstFloatArg(cn); ok {
						cfg.BM25.K1 = v
					}
				case "b":
					if v, ok := firstFloatArg(cn); ok {
						cfg.BM25.B = v
					}
				case "weight_path":
					if v, ok := firstFloatArg(cn); ok {
						cfg.BM25.WeightPath = v
					}
				case "weight_identifier":
					if v, ok := firstFloatArg(cn); ok {
						cfg.BM25.WeightIdentifier = v
					}
				case "weight_doc":
					if v, ok := firstFloatArg(cn); ok {
						cfg.BM25.WeightDoc = v
					}
				case "weight_string_literal":
					if v, ok := firstFloatArg(cn); ok {
						cfg.BM25.WeightStringLiteral = v
					}
				case "weight_code":
					if v, ok := firstFloatArg(cn); ok {
						cfg.BM25.WeightCode = v
					}
				case "enable_stemming":
					if b, ok := firstBoolArg(cn); ok {
						cfg.BM25.EnableStemming = b
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}

	cfg.Exclude = DeduplicatePatterns(cfg.Exclude)
}

func resolveRoot(v, configDir string) string {
	if filepath.IsAbs(v) {
		return filepath.Clean(v)
	}
	return filepath.Clean(filepath.Join(configDir, v))
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
