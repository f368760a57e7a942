// Package ticket maps helpdesk tickets onto external collections. One
// parameterized type table replaces the per-ticket-type modules the
// service grew out of: each Type names its collection and its field
// names, and the same option/create/detail/cancel code serves every
// type.
package ticket

import (
	"strings"

	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/policy"
)

// Kind identifies a ticket type in URLs.
type Kind string

const (
	KindInquiry Kind = "inquiry"
	KindRepair  Kind = "repair"
)

// TextLimit caps free-text fields before they reach the store.
const TextLimit = 2000

// Fields is the field-name table of one ticket type. An empty name
// means the type does not carry that field.
type Fields struct {
	Title          string
	Corporation    string
	Department     string
	Requester      string
	AssetNumber    string
	InquiryType    string
	Urgency        string
	IssueType      string
	Location       string
	Team           string
	Status         string
	ProgressStatus string
	Assignee       string
	Attachments    string
	Consent        string
	ActionNotes    string
	Liability      string
	Schedule       string
	Price          string
}

// Type binds a ticket kind to its collection and field table.
type Type struct {
	Kind         Kind
	DataSourceID string
	DatabaseID   string
	Fields       Fields
}

// InquiryFields is the field table of the inquiry collection.
var InquiryFields = Fields{
	Title:       "문의내용",
	Corporation: "법인",
	Department:  "부서",
	Requester:   "문의자",
	AssetNumber: "자산번호",
	InquiryType: "문의유형",
	Urgency:     "긴급도",
	Status:      "상태",
	Assignee:    "담당자",
	Attachments: "첨부파일",
}

// RepairFields is the field table of the repair collection.
var RepairFields = Fields{
	Title:          "고장증상",
	Corporation:    "법인",
	Department:     "부서",
	Requester:      "문의자",
	AssetNumber:    "자산번호",
	Urgency:        "긴급도",
	IssueType:      "고장 내역",
	Location:       "실제 근무 위치",
	Team:           "Team",
	Status:         "상태",
	ProgressStatus: "수리진행상황",
	Assignee:       "담당자",
	Attachments:    "첨부파일",
	Consent:        "수리 진행 동의서",
	ActionNotes:    "조치내용",
	Liability:      "과실여부",
	Schedule:       "수리 일정",
	Price:          "단가",
}

// Detail is the normalized view of one ticket record.
type Detail struct {
	ID             string   `json:"id"`
	URL            string   `json:"url,omitempty"`
	CreatedTime    string   `json:"createdTime"`
	LastEditedTime string   `json:"lastEditedTime"`
	Archived       bool     `json:"archived"`
	Detail         string   `json:"detail"`
	Corporation    string   `json:"corporation"`
	Department     string   `json:"department,omitempty"`
	Requester      string   `json:"requester"`
	AssetNumber    string   `json:"assetNumber,omitempty"`
	InquiryType    string   `json:"inquiryType,omitempty"`
	Urgency        string   `json:"urgency"`
	IssueTypes     []string `json:"issueTypes,omitempty"`
	Location       string   `json:"location,omitempty"`
	Team           string   `json:"team,omitempty"`
	Status         string   `json:"status,omitempty"`
	ProgressStatus string   `json:"progressStatus,omitempty"`
	Assignee       string   `json:"assignee,omitempty"`
	Attachments    []string `json:"attachments,omitempty"`
	Consent        bool     `json:"consent,omitempty"`
	ActionNotes    string   `json:"actionNotes,omitempty"`
	Liability      string   `json:"liability,omitempty"`
	Schedule       string   `json:"schedule,omitempty"`
	Price          string   `json:"price,omitempty"`
}

// State projects the fields the cancel policy reads.
func (d *Detail) State() policy.TicketState {
	return policy.TicketState{
		Archived:       d.Archived,
		Assignee:       d.Assignee,
		Status:         d.Status,
		ProgressStatus: d.ProgressStatus,
	}
}

func mapDetail(t Type, page *notion.Page) *Detail {
	props := page.Properties
	f := t.Fields

	d := &Detail{
		ID:             page.ID,
		URL:            page.URL,
		CreatedTime:    page.CreatedTime,
		LastEditedTime: page.LastEditedTime,
		Archived:       page.Archived,
		Detail:         props.PlainText(f.Title),
		Corporation:    props.SelectName(f.Corporation),
		Department:     props.PlainText(f.Department),
		Requester:      props.PlainText(f.Requester),
		AssetNumber:    props.PlainText(f.AssetNumber),
		Urgency:        props.SelectName(f.Urgency),
	}

	if f.InquiryType != "" {
		d.InquiryType = props.SelectName(f.InquiryType)
	}
	if f.IssueType != "" {
		d.IssueTypes = props.MultiSelectNames(f.IssueType)
	}
	if f.Location != "" {
		d.Location = props.PlainText(f.Location)
	}
	if f.Team != "" {
		d.Team = props.SelectName(f.Team)
	}
	if f.Status != "" {
		d.Status = props.SelectName(f.Status)
	}
	if f.ProgressStatus != "" {
		d.ProgressStatus = props.SelectName(f.ProgressStatus)
	}
	if f.Assignee != "" {
		d.Assignee = strings.Join(props.PeopleNames(f.Assignee), ", ")
	}
	if f.Attachments != "" {
		d.Attachments = props.FileNames(f.Attachments)
	}
	if f.Consent != "" {
		d.Consent = props.CheckboxValue(f.Consent)
	}
	if f.ActionNotes != "" {
		d.ActionNotes = props.PlainText(f.ActionNotes)
	}
	if f.Liability != "" {
		d.Liability = props.SelectName(f.Liability)
	}
	if f.Schedule != "" {
		d.Schedule = props.DateStart(f.Schedule)
	}
	if f.Price != "" {
		if n, ok := props.NumberValue(f.Price); ok {
			d.Price = formatPrice(n)
		}
	}

	return d
}

func clampText(s string) string {
	runes := []rune(s)
	if len(runes) > TextLimit {
		return string(runes[:TextLimit])
	}
	return s
}

func sanitize(s string) string {
	return strings.TrimSpace(s)
}
