package license

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/idstrust/helpdesk/internal/notion"
)

const (
	corporationField = "법인명"
	userField        = "사용자명"
)

// Result is the license entries found in one collection.
type Result struct {
	LicenseType string              `json:"licenseType"`
	Data        []map[string]string `json:"data"`
}

// Service fans a lookup out across the catalog's collections.
type Service struct {
	client  *notion.Client
	catalog *Catalog
}

func NewService(client *notion.Client, catalog *Catalog) *Service {
	return &Service{client: client, catalog: catalog}
}

// Search queries every active collection for entries owned by the
// given corporation and user. Collections target disjoint stores, so
// the queries run concurrently and results merge by concatenation in
// catalog order; collections with no matches are dropped. A single
// failed query fails the whole lookup — no retry, no partial result.
func (s *Service) Search(ctx context.Context, corporation, user string) ([]Result, error) {
	collections := s.catalog.Active()
	found := make([][]map[string]string, len(collections))

	g, ctx := errgroup.WithContext(ctx)
	for i, col := range collections {
		g.Go(func() error {
			resp, err := s.client.QueryDataSource(ctx, col.DataSourceID, notion.Query{
				Filter: notion.And(
					notion.PropertyEquals(corporationField, "select", corporation),
					notion.PropertyEquals(userField, "rich_text", user),
				),
			})
			if err != nil {
				return err
			}

			entries := make([]map[string]string, 0, len(resp.Results))
			for _, page := range resp.Results {
				entry := make(map[string]string, len(col.Fields))
				for _, field := range col.Fields {
					if v := page.Properties.PlainText(field); v != "" {
						entry[field] = v
					} else {
						entry[field] = "-"
					}
				}
				entries = append(entries, entry)
			}
			found[i] = entries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []Result
	for i, col := range collections {
		if len(found[i]) == 0 {
			continue
		}
		results = append(results, Result{LicenseType: col.Name, Data: found[i]})
	}
	return results, nil
}
