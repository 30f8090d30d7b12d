// Package schema loads content type property descriptors from HCL files.
//
//	content_type "article" {
//	  property "hero" {
//	    editor = "Umbraco.MediaPicker3"
//	    config = {
//	      multiple = false
//	      crops    = [{ alias = "thumb", width = 200, height = 200 }]
//	    }
//	  }
//	}
//
// The config attribute is an arbitrary HCL object; it is stored on the
// descriptor as JSON for converters to decode.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// fileRoot decodes the top-level blocks of a schema file. Unknown blocks and
// attributes are decode errors.
type fileRoot struct {
	ContentTypes []*contentTypeBlock `hcl:"content_type,block"`
}

type contentTypeBlock struct {
	Alias      string           `hcl:"alias,label"`
	Properties []*propertyBlock `hcl:"property,block"`
}

type propertyBlock struct {
	Alias  string    `hcl:"alias,label"`
	Editor string    `hcl:"editor"`
	Config cty.Value `hcl:"config,optional"`
}

// Loader reads schema files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new HCL schema loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load parses every .hcl file under paths into a Source. A content type may
// be split across files; a property declared twice is an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Source, error) {
	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx, "Discovered schema files", "count", len(files))

	source := newSource()
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse schema file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode schema file %s: %w", file, diags)
		}

		for _, ct := range root.ContentTypes {
			for _, p := range ct.Properties {
				d, err := translateProperty(ct.Alias, p)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", file, err)
				}
				if err := source.add(d); err != nil {
					return nil, fmt.Errorf("%s: %w", file, err)
				}
			}
		}
	}

	l.logger.DebugContext(ctx, "Schema loading complete", "content_types", len(source.order))
	return source, nil
}

func translateProperty(contentTypeAlias string, p *propertyBlock) (*simplevalues.PropertyDescriptor, error) {
	if p.Editor == "" {
		return nil, fmt.Errorf("property %s.%s: editor is required", contentTypeAlias, p.Alias)
	}

	var configuration []byte
	if !p.Config.IsNull() {
		if !p.Config.IsWhollyKnown() {
			return nil, fmt.Errorf("property %s.%s: config must be a constant value", contentTypeAlias, p.Alias)
		}
		if !p.Config.Type().IsObjectType() && !p.Config.Type().IsMapType() {
			return nil, fmt.Errorf("property %s.%s: config must be an object", contentTypeAlias, p.Alias)
		}
		data, err := ctyjson.Marshal(p.Config, p.Config.Type())
		if err != nil {
			return nil, fmt.Errorf("property %s.%s: encode config: %w", contentTypeAlias, p.Alias, err)
		}
		configuration = data
	}

	return simplevalues.NewPropertyDescriptor(contentTypeAlias, p.Alias, p.Editor, configuration), nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Schema path does not exist", "path", path)
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
