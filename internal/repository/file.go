package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"gopkg.in/yaml.v3"
)

// documentExtensions lists the accepted document formats in lookup order
var documentExtensions = []string{".json", ".yaml", ".yml"}

// IndexDocument lists the effective starts available for one family
type IndexDocument struct {
	Dates []domain.SelectableDate `yaml:"dates" json:"dates"`
}

// FileRepository reads one family's rule-sets from <root>/<family>/: an
// index document plus one document per effective start, as JSON or YAML
type FileRepository struct {
	root   string
	family string
}

// NewFileRepository creates a repository for family under root
func NewFileRepository(root, family string) *FileRepository {
	return &FileRepository{root: root, family: family}
}

// Dir returns the directory holding the family's documents
func (r *FileRepository) Dir() string {
	return filepath.Join(r.root, r.family)
}

// LoadIndex reads the family's index document
func (r *FileRepository) LoadIndex(ctx context.Context) (*IndexDocument, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var index IndexDocument
	if err := r.readDocument("index", &index); err != nil {
		return nil, err
	}
	for _, entry := range index.Dates {
		if _, err := domain.ParseDate(entry.Key); err != nil {
			return nil, unavailable("%s index: %v", r.family, err)
		}
	}
	return &index, nil
}

func (r *FileRepository) LoadAll(ctx context.Context) ([]domain.RuleSet, error) {
	index, err := r.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}

	ruleSets := make([]domain.RuleSet, 0, len(index.Dates))
	for _, entry := range index.Dates {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		// key was validated by LoadIndex
		start, _ := domain.ParseDate(entry.Key)
		rs, err := r.loadRuleSet(start)
		if err != nil {
			return nil, err
		}
		if rs.Label == "" {
			rs.Label = entry.Label
		}
		ruleSets = append(ruleSets, rs)
	}
	return ruleSets, nil
}

func (r *FileRepository) LoadOne(ctx context.Context, effectiveStart domain.Date) (domain.RuleSet, error) {
	if err := checkContext(ctx); err != nil {
		return domain.RuleSet{}, err
	}
	return r.loadRuleSet(effectiveStart)
}

// loadRuleSet decodes and validates the document for one effective start. A
// document without its own effectiveStart inherits it from the file name.
func (r *FileRepository) loadRuleSet(start domain.Date) (domain.RuleSet, error) {
	var rs domain.RuleSet
	if err := r.readDocument(start.String(), &rs); err != nil {
		return domain.RuleSet{}, err
	}

	if rs.EffectiveStart.IsZero() {
		rs.EffectiveStart = start
	} else if !rs.EffectiveStart.Equal(start) {
		return domain.RuleSet{}, unavailable("%s document %s declares effective start %s", r.family, start, rs.EffectiveStart)
	}

	if err := ValidateRuleSet(rs); err != nil {
		return domain.RuleSet{}, unavailable("%s document %s: %v", r.family, start, err)
	}
	return rs, nil
}

// readDocument finds <name>.{json,yaml,yml} and decodes it into v
func (r *FileRepository) readDocument(name string, v any) error {
	for _, ext := range documentExtensions {
		path := filepath.Join(r.Dir(), name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return unavailable("failed to read file %s: %v", path, err)
		}
		if err := decodeDocument(ext, data, v); err != nil {
			return unavailable("failed to parse %s: %v", path, err)
		}
		return nil
	}
	return unavailable("%s document %q not found in %s", r.family, name, r.Dir())
}

func decodeDocument(ext string, data []byte, v any) error {
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	case ".json":
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported document format %s", ext)
	}
}

// ListFamilies returns the family directories found under root
func ListFamilies(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, unavailable("failed to read data root %s: %v", root, err)
	}
	var families []string
	for _, e := range entries {
		if e.IsDir() {
			families = append(families, e.Name())
		}
	}
	return families, nil
}
