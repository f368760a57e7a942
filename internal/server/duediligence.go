package server

import (
	"encoding/json"
	"net/http"

	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/server/respond"
)

// createDueDiligence records a due-diligence report. The campaign
// window is re-checked at submission time, and an asset number may
// only be reported once per campaign.
func (s *Server) createDueDiligence(w http.ResponseWriter, r *http.Request) {
	var sub campaignSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil || sub.User == "" || sub.AssetNumber == "" {
		respond.Error(w, http.StatusBadRequest, "유효한 JSON 요청이 필요합니다.")
		return
	}

	_, period, err := s.campaignPeriod(r, s.cfg.DueDiligenceInfoDataSourceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !period.Active(s.today()) {
		respond.Error(w, http.StatusBadRequest, noActiveCampaignMessage)
		return
	}

	existing, err := s.store.QueryDataSource(r.Context(), s.cfg.DueDiligenceDataSourceID, notion.Query{
		Filter: notion.PropertyEquals(assetNumberField, "rich_text", sub.AssetNumber),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(existing.Results) > 0 {
		respond.Error(w, http.StatusBadRequest, "이미 제출된 자산 번호입니다. IdsTrust 자산관리파트로 문의주세요.")
		return
	}

	page, err := s.store.CreatePage(r.Context(), notion.Parent{DataSourceID: s.cfg.DueDiligenceDataSourceID}, sub.properties())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"recordId": page.ID})
}

// lookupAsset prefills the due-diligence form from the asset register.
func (s *Server) lookupAsset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssetNumber string `json:"assetNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AssetNumber == "" {
		respond.Error(w, http.StatusBadRequest, "자산번호를 입력해주세요.")
		return
	}

	resp, err := s.store.QueryDataSource(r.Context(), s.cfg.AssetsDataSourceID, notion.Query{
		Filter: notion.PropertyEquals(assetNumberField, "rich_text", body.AssetNumber),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(resp.Results) == 0 {
		respond.Error(w, http.StatusNotFound, "해당 자산번호를 찾을 수 없습니다. 수동으로 입력해주세요.")
		return
	}

	respond.JSON(w, http.StatusOK, assetSummary(resp.Results[0]))
}
