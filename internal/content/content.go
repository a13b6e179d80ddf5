// Package content holds the static data rendered by the portfolio page:
// skills, projects, links and the navigation sections.
package content

import (
	"strings"
)

// NoLink marks a project link that was not provided. Actions pointing at it
// are not rendered.
const NoLink = "#"

// Skill is a named tool or technology with a proficiency level in percent.
type Skill struct {
	Name  string `yaml:"name" validate:"required"`
	Level int    `yaml:"level" validate:"min=0,max=100"`
}

// Project is one entry of the works gallery.
type Project struct {
	ID          int      `yaml:"id" validate:"required"`
	Title       string   `yaml:"title" validate:"required"`
	Subtitle    string   `yaml:"subtitle"`
	Cover       string   `yaml:"cover"`
	Tags        []string `yaml:"tags"`
	Link        string   `yaml:"link"`
	Code        string   `yaml:"code"`
	Shots       []string `yaml:"shots"`
	Description string   `yaml:"description"`
	Role        string   `yaml:"role"`
	Outcome     string   `yaml:"outcome"`
}

// HasLink reports whether the project has a live site to link to.
func (p Project) HasLink() bool {
	return isLink(p.Link)
}

// HasCode reports whether the project has a code repository to link to.
func (p Project) HasCode() bool {
	return isLink(p.Code)
}

func isLink(href string) bool {
	href = strings.TrimSpace(href)
	return href != "" && href != NoLink
}

// LinkItem is a labelled outbound link shown in the hero and contact sections.
type LinkItem struct {
	Href  string `yaml:"href" validate:"required"`
	Label string `yaml:"label" validate:"required"`
	Icon  string `yaml:"icon"`
}

// External reports whether the link leaves the site and should open in a new tab.
func (l LinkItem) External() bool {
	return strings.HasPrefix(l.Href, "http://") || strings.HasPrefix(l.Href, "https://")
}

// NavSection ties a page region anchor to its navigation label.
type NavSection struct {
	ID    string
	Label string
}

// Sections is the fixed navigation order, which is also the scroll order.
var Sections = []NavSection{
	{ID: "home", Label: "Home"},
	{ID: "skills", Label: "Skills"},
	{ID: "works", Label: "Works"},
	{ID: "about", Label: "About"},
	{ID: "contact", Label: "Contact"},
}

// SectionIDs returns the identifiers of Sections in display order.
func SectionIDs() []string {
	ids := make([]string, len(Sections))
	for i, s := range Sections {
		ids[i] = s.ID
	}
	return ids
}

// Catalog is everything the page renders. It is built once at start and
// treated as read-only afterwards.
type Catalog struct {
	Owner    string     `yaml:"owner" validate:"required"`
	Headline string     `yaml:"headline"`
	Tagline  string     `yaml:"tagline"`
	Email    string     `yaml:"email" validate:"omitempty,email"`
	Phone    string     `yaml:"phone"`
	Resume   string     `yaml:"resume"`
	Portrait string     `yaml:"portrait"`
	About    []string   `yaml:"about"`
	Skills   []Skill    `yaml:"skills" validate:"dive"`
	Projects []Project  `yaml:"projects" validate:"dive"`
	Links    []LinkItem `yaml:"links" validate:"dive"`
}

// Project returns the project with the given id.
func (c *Catalog) Project(id int) (*Project, bool) {
	for i := range c.Projects {
		if c.Projects[i].ID == id {
			return &c.Projects[i], true
		}
	}
	return nil, false
}
