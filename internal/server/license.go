package server

import (
	"encoding/json"
	"net/http"

	"github.com/idstrust/helpdesk/internal/license"
	"github.com/idstrust/helpdesk/internal/server/respond"
)

// searchLicenses fans a license lookup out across the catalog. Session
// gated: the requester proves they just passed the issuance step.
func (s *Server) searchLicenses(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Corporation string `json:"corporation"`
		User        string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Corporation == "" || body.User == "" {
		respond.Error(w, http.StatusBadRequest, "법인명과 사용자명은 필수입니다.")
		return
	}

	results, err := s.licenses.Search(r.Context(), body.Corporation, body.User)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if results == nil {
		results = []license.Result{}
	}
	respond.JSON(w, http.StatusOK, results)
}

// licenseOptions serves the corporation list the license form offers.
func (s *Server) licenseOptions(w http.ResponseWriter, r *http.Request) {
	s.corporations(w, r)
}
