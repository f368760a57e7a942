package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/idstrust/helpdesk/internal/auth"
	"github.com/idstrust/helpdesk/internal/license"
	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/session"
	"github.com/idstrust/helpdesk/internal/ticket"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fixedClock is a movable time source shared by the session service
// and the campaign-window checks. Pinned to a whole second so token
// expiry boundaries are exact.
type fixedClock struct {
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.UnixMilli(1700000000000)}
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestHandler wires a full handler against a stubbed store.
func newTestHandler(t *testing.T, store http.Handler) (http.Handler, *fixedClock) {
	t.Helper()

	upstream := httptest.NewServer(store)
	t.Cleanup(upstream.Close)
	return newTestHandlerAt(t, upstream.URL)
}

// newTestHandlerAt wires a full handler against a store base URL,
// which may point nowhere.
func newTestHandlerAt(t *testing.T, baseURL string) (http.Handler, *fixedClock) {
	t.Helper()

	clock := newFixedClock()
	client, err := notion.NewClient(notion.Config{Token: "test-token", BaseURL: baseURL})
	require.NoError(t, err)

	sessions, err := session.NewService([]byte(testSecret))
	require.NoError(t, err)
	sessions.WithClock(clock.Now)

	tickets := ticket.NewService(client, ticket.Type{
		Kind:         ticket.KindRepair,
		DataSourceID: "ds-repair",
		DatabaseID:   "db-repair",
		Fields:       ticket.RepairFields,
	})

	srv := New(
		Config{
			AssetsDataSourceID:           "ds-assets",
			AssetsDatabaseID:             "db-assets",
			InquiryDatabaseID:            "db-inquiry",
			RepairDatabaseID:             "db-repair",
			StocktakingDataSourceID:      "ds-stocktaking",
			StocktakingInfoDataSourceID:  "ds-stocktaking-info",
			DueDiligenceDataSourceID:     "ds-due-diligence",
			DueDiligenceInfoDataSourceID: "ds-due-diligence-info",
			CORSOrigins:                  []string{"*"},
		},
		client,
		sessions,
		auth.NewAuthorizer([]byte(testSecret)),
		tickets,
		license.NewService(client, license.Default(nil)),
	).WithClock(clock.Now)

	return srv.Handler(zerolog.Nop()), clock
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["message"].(string)
	return msg
}

// queryResult wraps pages into a collection query response body.
func queryResult(pages ...map[string]any) map[string]any {
	if pages == nil {
		pages = []map[string]any{}
	}
	return map[string]any{"results": pages}
}

func campaignInfoPage(start, end string) map[string]any {
	return map[string]any{
		"id": "info-1",
		"properties": map[string]any{
			"실사제목": map[string]any{"type": "title", "title": []map[string]any{{"plain_text": "2023년 하반기 실사"}}},
			"날짜":   map[string]any{"type": "date", "date": map[string]any{"start": start, "end": end}},
		},
	}
}

func assetPage(id string) map[string]any {
	return map[string]any{
		"id": id,
		"properties": map[string]any{
			"법인명":  map[string]any{"type": "select", "select": map[string]any{"name": "대웅개발"}},
			"사용자":  map[string]any{"type": "title", "title": []map[string]any{{"plain_text": "홍길동"}}},
			"제조사":  map[string]any{"type": "select", "select": map[string]any{"name": "LG"}},
			"실사확인": map[string]any{"type": "checkbox", "checkbox": true},
		},
	}
}

func stubJSON(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestSessionLifecycle(t *testing.T) {
	handler, clock := newTestHandler(t, http.NotFoundHandler())

	rec := doJSON(t, handler, http.MethodPost, "/api/session", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	token, _ := body["sessionId"].(string)
	require.NotEmpty(t, token)
	require.Equal(t, float64(clock.Now().Add(session.Duration).UnixMilli()), body["expiresAt"])

	t.Run("lookup by path", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/session/"+token, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, float64(clock.Now().UnixMilli()), body["createdAt"])
		require.Equal(t, float64(clock.Now().Add(session.Duration).UnixMilli()), body["expiresAt"])
	})

	t.Run("query with session header", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/session/query", nil, map[string]string{auth.SessionHeader: token})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("query without session header", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/session/query", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "세션 ID가 필요합니다.", message(t, rec))
	})

	t.Run("expired session", func(t *testing.T) {
		clock.Advance(session.Duration + time.Second)

		rec := doJSON(t, handler, http.MethodGet, "/api/session/"+token, nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "유효하지 않거나 만료된 세션입니다.", message(t, rec))

		rec = doJSON(t, handler, http.MethodGet, "/api/session/query", nil, map[string]string{auth.SessionHeader: token})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "유효하지 않거나 만료된 세션입니다.", message(t, rec))
	})
}

func TestBearerGate(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("POST /data_sources/ds-assets/query", stubJSON(queryResult(assetPage("asset-1"))))
	handler, _ := newTestHandler(t, mux)

	body := map[string]string{"assetNumber": "DW-1234"}

	t.Run("missing header", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/assets", body, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "토큰이 필요합니다.", message(t, rec))
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/assets", body, map[string]string{"Authorization": "Bearer wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "유효하지 않은 토큰입니다.", message(t, rec))
	})

	t.Run("authorized", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/assets", body, map[string]string{"Authorization": "Bearer " + testSecret})
		require.Equal(t, http.StatusOK, rec.Code)

		results, ok := decodeBody(t, rec)["results"].([]any)
		require.True(t, ok)
		require.Len(t, results, 1)

		first := results[0].(map[string]any)
		require.Equal(t, "asset-1", first["pageId"])

		props := first["properties"].(map[string]any)
		require.Equal(t, "대웅개발", props["법인명"])
		require.Equal(t, "-", props["부서"])
		require.Equal(t, true, props["실사확인"])
	})
}

func TestTicketRoutes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /databases/db-repair", stubJSON(map[string]any{
		"properties": map[string]any{
			"법인":    map[string]any{"type": "select", "select": map[string]any{"options": []map[string]any{{"name": "대웅개발"}}}},
			"긴급도":   map[string]any{"type": "select", "select": map[string]any{"options": []map[string]any{{"name": "급합니다."}}}},
			"고장 내역": map[string]any{"type": "multi_select", "multi_select": map[string]any{"options": []map[string]any{{"name": "액정"}}}},
		},
	}))
	mux.HandleFunc("POST /pages", stubJSON(map[string]any{"id": "created-1"}))
	handler, _ := newTestHandler(t, mux)

	t.Run("unknown type", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/ticket/warranty/options", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "지원하지 않는 티켓 유형입니다.", message(t, rec))
	})

	t.Run("create", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/ticket/repair", ticket.Submission{
			Corporation: "대웅개발",
			Requester:   "홍길동",
			Urgency:     "급합니다.",
			IssueTypes:  []string{"액정"},
			Detail:      "화면이 나오지 않습니다.",
			Consent:     true,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, "created-1", body["id"])
		require.Equal(t, true, body["success"])
	})

	t.Run("invalid submission", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/ticket/repair", ticket.Submission{Requester: "홍길동"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "필수 항목을 모두 입력하고 동의가 필요합니다.", message(t, rec))
	})
}

func TestStocktakingInfo(t *testing.T) {
	t.Run("active campaign", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("POST /data_sources/ds-stocktaking-info/query", stubJSON(queryResult(campaignInfoPage("2023-11-01", "2023-11-30"))))
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodGet, "/api/stocktaking/info", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, "2023년 하반기 실사", body["title"])
		require.Equal(t, "2023-11-01", body["start"])
		require.Equal(t, "2023-11-30", body["end"])
	})

	t.Run("window not open yet", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("POST /data_sources/ds-stocktaking-info/query", stubJSON(queryResult(campaignInfoPage("2023-12-01", "2023-12-15"))))
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodGet, "/api/stocktaking/info", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "진행 중인 실사가 없습니다. IdsTrust 자산관리파트로 문의주세요.", message(t, rec))
	})

	t.Run("no campaign record", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("POST /data_sources/ds-stocktaking-info/query", stubJSON(queryResult()))
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodGet, "/api/stocktaking/info", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDueDiligence(t *testing.T) {
	submission := map[string]string{
		"corporation": "대웅개발",
		"department":  "전산팀",
		"user":        "홍길동",
		"assetNumber": "DW-1234",
	}

	t.Run("accepted", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("POST /data_sources/ds-due-diligence-info/query", stubJSON(queryResult(campaignInfoPage("2023-11-01", "2023-11-30"))))
		mux.Handle("POST /data_sources/ds-due-diligence/query", stubJSON(queryResult()))
		mux.Handle("POST /pages", stubJSON(map[string]any{"id": "record-1"}))
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodPost, "/api/due-diligence", submission, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "record-1", decodeBody(t, rec)["recordId"])
	})

	t.Run("duplicate asset number", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("POST /data_sources/ds-due-diligence-info/query", stubJSON(queryResult(campaignInfoPage("2023-11-01", "2023-11-30"))))
		mux.Handle("POST /data_sources/ds-due-diligence/query", stubJSON(queryResult(assetPage("dup-1"))))
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodPost, "/api/due-diligence", submission, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "이미 제출된 자산 번호입니다. IdsTrust 자산관리파트로 문의주세요.", message(t, rec))
	})

	t.Run("campaign closed", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("POST /data_sources/ds-due-diligence-info/query", stubJSON(queryResult(campaignInfoPage("2023-10-01", "2023-10-31"))))
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodPost, "/api/due-diligence", submission, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "진행 중인 실사가 없습니다. IdsTrust 자산관리파트로 문의주세요.", message(t, rec))
	})

	t.Run("asset lookup miss", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("POST /data_sources/ds-assets/query", stubJSON(queryResult()))
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodPost, "/api/due-diligence/lookup", map[string]string{"assetNumber": "NOPE"}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "해당 자산번호를 찾을 수 없습니다. 수동으로 입력해주세요.", message(t, rec))
	})
}

func TestLicenseSearchRequiresSession(t *testing.T) {
	handler, _ := newTestHandler(t, http.NotFoundHandler())
	body := map[string]string{"corporation": "대웅개발", "user": "홍길동"}

	rec := doJSON(t, handler, http.MethodPost, "/api/license", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	issue := doJSON(t, handler, http.MethodPost, "/api/session", nil, nil)
	token := decodeBody(t, issue)["sessionId"].(string)

	rec = doJSON(t, handler, http.MethodPost, "/api/license", body, map[string]string{auth.SessionHeader: token})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, handler, http.MethodPost, "/api/license", map[string]string{"corporation": "대웅개발"}, map[string]string{auth.SessionHeader: token})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "법인명과 사용자명은 필수입니다.", message(t, rec))
}

func TestHealth(t *testing.T) {
	t.Run("all reachable", func(t *testing.T) {
		mux := http.NewServeMux()
		schema := stubJSON(map[string]any{"properties": map[string]any{}})
		mux.Handle("GET /databases/db-inquiry", schema)
		mux.Handle("GET /databases/db-repair", schema)
		mux.Handle("GET /databases/db-assets", schema)
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodGet, "/api/health", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, true, decodeBody(t, rec)["success"])
	})

	t.Run("one collection down", func(t *testing.T) {
		mux := http.NewServeMux()
		schema := stubJSON(map[string]any{"properties": map[string]any{}})
		mux.Handle("GET /databases/db-inquiry", schema)
		mux.Handle("GET /databases/db-repair", schema)
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodGet, "/api/health", nil, nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, false, decodeBody(t, rec)["success"])
	})
}

// Store failures always collapse to the same 500 body: non-2xx
// responses and transport errors alike, with no upstream detail.
func TestUpstreamFailureIsGeneric(t *testing.T) {
	t.Run("non-2xx response", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /data_sources/ds-stocktaking-info/query", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "rate limited"})
		})
		handler, _ := newTestHandler(t, mux)

		rec := doJSON(t, handler, http.MethodGet, "/api/stocktaking/info", nil, nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "외부 저장소 요청에 실패했습니다.", message(t, rec))
	})

	t.Run("store unreachable", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()
		handler, _ := newTestHandlerAt(t, dead.URL)

		rec := doJSON(t, handler, http.MethodGet, "/api/stocktaking/info", nil, nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "외부 저장소 요청에 실패했습니다.", message(t, rec))
		require.NotContains(t, rec.Body.String(), dead.URL)
	})
}
