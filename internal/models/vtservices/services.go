package vtservices

import (
	"fmt"
	"html/template"
	"strings"

	"vitrine/internal/models/vtmarkdown"
	"vitrine/internal/vtconfig"
)

const excerptLength = 180

// Service est une prestation de l'agence, prête à servir à la SPA :
// description convertie en HTML et extrait en texte brut
type Service struct {
	Slug    string        `json:"slug"`
	Name    string        `json:"name"`
	Icon    string        `json:"icon"`
	HTML    template.HTML `json:"html"`
	Excerpt string        `json:"excerpt"`
}

type Catalog struct {
	services []Service
	bySlug   map[string]int
}

// NewCatalog construit le catalogue depuis la configuration.
// Le rendu Markdown est fait une seule fois au démarrage
func NewCatalog(configs []vtconfig.ServiceConfig) (*Catalog, error) {
	catalog := &Catalog{
		bySlug: make(map[string]int, len(configs)),
	}

	for _, sc := range configs {
		slug := strings.TrimSpace(sc.Slug)
		if slug == "" {
			return nil, fmt.Errorf("service sans slug: %q", sc.Name)
		}
		if _, exists := catalog.bySlug[slug]; exists {
			return nil, fmt.Errorf("slug de service dupliqué: %q", slug)
		}

		catalog.bySlug[slug] = len(catalog.services)
		catalog.services = append(catalog.services, Service{
			Slug:    slug,
			Name:    sc.Name,
			Icon:    sc.Icon,
			HTML:    vtmarkdown.ConvertMarkdownToHTML(sc.Description),
			Excerpt: vtmarkdown.Excerpt(sc.Description, excerptLength),
		})
	}

	return catalog, nil
}

// List retourne les prestations dans l'ordre du fichier de config
func (c *Catalog) List() []Service {
	return c.services
}

// Get retrouve une prestation par son slug
func (c *Catalog) Get(slug string) (*Service, bool) {
	idx, ok := c.bySlug[slug]
	if !ok {
		return nil, false
	}
	return &c.services[idx], true
}
