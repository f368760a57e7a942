// Package license looks up software license entries across a catalog
// of external collections, one per product family. The catalog is a
// data table, not code: collections differ only in which collection
// they query and which fields their results carry.
package license

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Collection is one license store in the catalog.
type Collection struct {
	Name         string   `yaml:"name"`
	DataSourceID string   `yaml:"dataSourceId"`
	Fields       []string `yaml:"fields"`
}

// Catalog is the set of license collections to search.
type Catalog struct {
	Collections []Collection `yaml:"collections"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read license catalog: %w", err)
	}

	catalog := &Catalog{}
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("failed to parse license catalog: %w", err)
	}

	for _, c := range catalog.Collections {
		if c.Name == "" || len(c.Fields) == 0 {
			return nil, fmt.Errorf("license catalog entry %q is incomplete", c.Name)
		}
	}
	return catalog, nil
}

// Default returns the built-in catalog. Data-source IDs are filled
// from the ids map keyed by collection name; collections without an ID
// stay in the catalog but are skipped by searches.
func Default(ids map[string]string) *Catalog {
	serial := []string{"소프트웨어", "시리얼넘버"}
	account := []string{"소프트웨어", "등록계정"}

	collections := []Collection{
		{Name: "MS OFFICE", Fields: serial},
		{Name: "MS Office 365", Fields: account},
		{Name: "한컴", Fields: serial},
		{Name: "EZ PDF", Fields: serial},
		{Name: "Adobe PDF", Fields: []string{"소프트웨어", "시리얼넘버/win", "시리얼넘버/mac"}},
		{Name: "adobe-creative-cloud", Fields: []string{"등록계정"}},
		{Name: "Adobe Photoshop", Fields: account},
		{Name: "Adobe Illustrator", Fields: account},
		{Name: "Adobe Premiere Pro", Fields: account},
		{Name: "Auto CAD", Fields: []string{"소프트웨어", "시리얼넘버", "Product Key"}},
		{Name: "MAC Office", Fields: serial},
		{Name: "MAC 한컴", Fields: []string{"소프트웨어", "라이선스키"}},
		{Name: "기타", Fields: serial},
	}

	for i := range collections {
		collections[i].DataSourceID = ids[collections[i].Name]
	}
	return &Catalog{Collections: collections}
}

// Active returns the collections that can actually be queried.
func (c *Catalog) Active() []Collection {
	var active []Collection
	for _, col := range c.Collections {
		if col.DataSourceID != "" {
			active = append(active, col)
		}
	}
	return active
}
