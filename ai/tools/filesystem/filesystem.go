// Package filesystem exposes local file access as a tool. The capability is
// registered under "get_file" and stays deny-by-default in the policy table.
package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/einlabs/ein/ai/tools"
)

// Tool provides list/read/write access under a root directory.
type Tool struct {
	root string
}

// New creates a filesystem tool confined to root. An empty root allows
// absolute paths anywhere; the policy table is then the only gate.
func New(root string) *Tool {
	return &Tool{root: root}
}

func (t *Tool) Register(r *tools.Registry) {
	r.RegisterTool(tools.Capability{
		Name:        "get_file",
		Description: "Access and manipulate local files and directories.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.GetFileParams)
			if !ok {
				return nil, errors.New("get_file: unexpected params type")
			}
			return t.Run(ctx, p)
		},
	})
}

func (t *Tool) resolve(path string) (string, error) {
	if t.root == "" {
		return path, nil
	}
	resolved := filepath.Join(t.root, path)
	cleanRoot := filepath.Clean(t.root) + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(resolved)+string(os.PathSeparator), cleanRoot) {
		return "", errors.Errorf("path %q escapes the allowed root", path)
	}
	return resolved, nil
}

func (t *Tool) Run(_ context.Context, p tools.GetFileParams) (any, error) {
	path, err := t.resolve(p.Path)
	if err != nil {
		return nil, err
	}

	switch p.Action {
	case "list":
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", path)
		}
		names := make([]string, len(entries))
		for i, entry := range entries {
			names[i] = entry.Name()
		}
		return names, nil
	case "read":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		return string(content), nil
	case "write":
		if err := os.WriteFile(path, []byte(p.Content), 0o644); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}
		return true, nil
	default:
		return nil, errors.Errorf("unknown action: %s", p.Action)
	}
}
