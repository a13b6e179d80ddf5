package content

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateProject is returned by Validate when two projects share an id.
var ErrDuplicateProject = errors.New("duplicate project id")

var validate = validator.New()

// Load reads a catalog from a YAML file. Fields missing from the file keep
// the values of Default.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading content file %s", path)
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "parsing content file %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "content file %s", path)
	}
	return c, nil
}

// Validate checks field constraints and that project ids are pairwise distinct.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid catalog")
	}

	seen := make(map[int]bool, len(c.Projects))
	for _, p := range c.Projects {
		if seen[p.ID] {
			return errors.Wrapf(ErrDuplicateProject, "id %d", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// DescriptionHTML renders the markdown description. Raw HTML in the source is
// dropped by the renderer.
func (p Project) DescriptionHTML() template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(p.Description), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(p.Description))
	}
	return template.HTML(buf.String())
}

// Width returns the CSS width used for the skill's progress bar.
func (s Skill) Width() string {
	return fmt.Sprintf("%d%%", s.Level)
}
