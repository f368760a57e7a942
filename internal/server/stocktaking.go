package server

import (
	"encoding/json"
	"net/http"

	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/policy"
	"github.com/idstrust/helpdesk/internal/server/respond"
)

const noActiveCampaignMessage = "진행 중인 실사가 없습니다. IdsTrust 자산관리파트로 문의주세요."

// campaignSubmission is the common body of stocktaking and
// due-diligence reports.
type campaignSubmission struct {
	Corporation string `json:"corporation"`
	Department  string `json:"department"`
	User        string `json:"user"`
	AssetNumber string `json:"assetNumber"`
}

func (c campaignSubmission) properties() map[string]any {
	properties := map[string]any{
		"사용자": notion.TitleProperty(c.User),
		"법인명": map[string]any{"select": map[string]any{"name": c.Corporation}},
	}
	if v := notion.TextProperty(c.Department); v != nil {
		properties["부서"] = v
	}
	if v := notion.TextProperty(c.AssetNumber); v != nil {
		properties["자산번호"] = v
	}
	return properties
}

// campaignPeriod reads the active campaign window from an info
// collection. Returns the first record's title and window; a missing
// record or missing bounds means no campaign.
func (s *Server) campaignPeriod(r *http.Request, infoDataSourceID string) (title string, period policy.Period, err error) {
	resp, err := s.store.QueryDataSource(r.Context(), infoDataSourceID, notion.Query{PageSize: 1})
	if err != nil {
		return "", policy.Period{}, err
	}
	if len(resp.Results) == 0 {
		return "", policy.Period{}, nil
	}

	page := resp.Results[0]
	return page.Properties.PlainText("실사제목"), policy.Period{
		Start: page.Properties.DateStart("날짜"),
		End:   page.Properties.DateEnd("날짜"),
	}, nil
}

// stocktakingInfo reports the current stocktaking campaign, or a 404
// with a fixed message when none is running today.
func (s *Server) stocktakingInfo(w http.ResponseWriter, r *http.Request) {
	title, period, err := s.campaignPeriod(r, s.cfg.StocktakingInfoDataSourceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if !period.Active(s.today()) {
		respond.Error(w, http.StatusNotFound, noActiveCampaignMessage)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"title": orDash(title),
		"start": period.Start,
		"end":   period.End,
	})
}

// createStocktaking records one stocktaking report.
func (s *Server) createStocktaking(w http.ResponseWriter, r *http.Request) {
	var sub campaignSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil || sub.User == "" {
		respond.Error(w, http.StatusBadRequest, "유효한 JSON 요청이 필요합니다.")
		return
	}

	page, err := s.store.CreatePage(r.Context(), notion.Parent{DataSourceID: s.cfg.StocktakingDataSourceID}, sub.properties())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"recordId": page.ID})
}

// confirmStocktaking marks one asset record as sighted.
func (s *Server) confirmStocktaking(w http.ResponseWriter, r *http.Request) {
	_, err := s.store.UpdatePage(r.Context(), r.PathValue("pageId"), map[string]any{
		"실사확인": notion.CheckboxProperty(true),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "실사 확인이 완료되었습니다."})
}
