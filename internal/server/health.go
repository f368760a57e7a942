package server

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/idstrust/helpdesk/internal/server/respond"
)

// health checks that every configured collection is reachable. The
// checks target disjoint collections and run concurrently; one
// failure fails the whole check.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	databases := []string{
		s.cfg.InquiryDatabaseID,
		s.cfg.RepairDatabaseID,
		s.cfg.AssetsDatabaseID,
	}

	g, ctx := errgroup.WithContext(r.Context())
	for _, id := range databases {
		if id == "" {
			continue
		}
		g.Go(func() error {
			_, err := s.store.GetDatabase(ctx, id)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		respond.JSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true})
}
