package server

import (
	"encoding/json"
	"net/http"

	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/server/respond"
)

const assetNumberField = "자산번호"

// assetOptionFields are the schema fields whose option lists the
// asset edit form needs.
var assetOptionFields = []string{
	"사용/재고/폐기/기타",
	"법인명",
	"제조사",
	"출고진행상황",
	"수리 작업 유형",
	"수리진행상황",
	"반납 진행 상황",
	"반납사유",
	"누락 사항",
}

// assetSummary maps an asset record to the fields lookups return.
func assetSummary(page notion.Page) map[string]any {
	props := page.Properties
	return map[string]any{
		"pageId": page.ID,
		"properties": map[string]any{
			"법인명":  orDash(props.SelectName("법인명")),
			"부서":   orDash(props.PlainText("부서")),
			"사용자":  orDash(props.PlainText("사용자")),
			"제조사":  orDash(props.SelectName("제조사")),
			"실사확인": props.CheckboxValue("실사확인"),
		},
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

// searchAssets looks up asset records by asset number.
func (s *Server) searchAssets(w http.ResponseWriter, r *http.Request) {
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

	results := make([]map[string]any, 0, len(resp.Results))
	for _, page := range resp.Results {
		results = append(results, assetSummary(page))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"results": results})
}

// assetOptions serves every option list the asset edit form offers.
func (s *Server) assetOptions(w http.ResponseWriter, r *http.Request) {
	schema, err := s.store.GetDataSource(r.Context(), s.cfg.AssetsDataSourceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	options := make(map[string][]string, len(assetOptionFields))
	for _, field := range assetOptionFields {
		names := schema.Options(field)
		if names == nil {
			names = []string{}
		}
		options[field] = names
	}
	respond.JSON(w, http.StatusOK, options)
}

// assetCorporations serves the corporation list from the asset
// collection schema. Also backs the license form's options.
func (s *Server) assetCorporations(w http.ResponseWriter, r *http.Request) {
	s.corporations(w, r)
}

func (s *Server) corporations(w http.ResponseWriter, r *http.Request) {
	schema, err := s.store.GetDatabase(r.Context(), s.cfg.AssetsDatabaseID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	corporations := schema.Options("법인명")
	if corporations == nil {
		corporations = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"corporations": corporations})
}

// editAsset patches one asset record. The body carries an
// already-typed property bag under "properties".
func (s *Server) editAsset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Properties) == 0 {
		respond.Error(w, http.StatusBadRequest, "수정할 데이터가 필요합니다.")
		return
	}

	page, err := s.store.UpdatePage(r.Context(), r.PathValue("pageId"), body.Properties)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, assetSummary(*page))
}
