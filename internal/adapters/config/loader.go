// Package config provides the suite file loader for gantry.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.SuiteLoader = (*FileLoader)(nil)

// FileLoader implements ports.SuiteLoader using a YAML suite file.
type FileLoader struct {
	logger ports.Logger
}

// NewLoader creates a FileLoader.
func NewLoader(logger ports.Logger) *FileLoader {
	return &FileLoader{logger: logger}
}

// Load reads a suite file and returns its test templates, sorted by name so
// expansion and run plans are deterministic regardless of map order.
func (l *FileLoader) Load(path string) ([]*domain.Template, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigRead.Error()), "path", path)
	}

	var file SuiteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParse.Error()), "path", path)
	}

	if file.Suite == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParse, "suite name is required"), "path", path)
	}
	if len(file.Tests) == 0 {
		return nil, zerr.With(domain.ErrNoTests, "path", path)
	}

	root := filepath.Dir(path)

	templates := make([]*domain.Template, 0, len(file.Tests))
	for name, dto := range file.Tests {
		tmpl, err := toTemplate(file.Suite, name, root, dto)
		if err != nil {
			return nil, zerr.With(err, "test", name)
		}
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	l.logger.Info("loaded suite " + file.Suite + " from " + path)
	return templates, nil
}

// toTemplate maps one test definition to the domain template. The suite
// file's directory becomes the template root, so source paths stay relative
// to the file that declares them.
func toTemplate(suite, name, root string, dto TestDTO) (*domain.Template, error) {
	nodes := dto.Nodes
	if nodes <= 0 {
		nodes = 1
	}

	scheduler := dto.Scheduler
	if scheduler == "" {
		scheduler = "local"
	}

	var timeout time.Duration
	if dto.Run.Timeout != "" {
		var err error
		timeout, err = time.ParseDuration(dto.Run.Timeout)
		if err != nil {
			return nil, zerr.Wrap(domain.ErrConfigParse, "invalid run timeout "+dto.Run.Timeout)
		}
	}

	variables := make([]domain.Variable, 0, len(dto.Variables))
	for _, v := range dto.Variables {
		variables = append(variables, domain.Variable{
			Name:     v.Name,
			Values:   v.Values,
			Deferred: v.Deferred,
			From:     v.From,
		})
	}

	return &domain.Template{
		Suite:        suite,
		Name:         name,
		Scheduler:    scheduler,
		Nodes:        nodes,
		Partition:    dto.Partition,
		IncludeNodes: dto.IncludeNodes,
		ExcludeNodes: dto.ExcludeNodes,
		Variables:    variables,
		Build: domain.BuildSpec{
			Source:   dto.Build.Source,
			Commands: dto.Build.Commands,
			Env:      dto.Build.Env,
		},
		Run: domain.RunSpec{
			Commands: dto.Run.Commands,
			Env:      dto.Run.Env,
			Timeout:  timeout,
		},
		Root: root,
	}, nil
}
