package ticket

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/policy"
)

var (
	ErrUnknownType      = errors.New("unknown ticket type")
	ErrAlreadyCanceled  = errors.New("ticket already canceled")
	ErrAssigneeAssigned = errors.New("ticket has an assignee")
	ErrInProgress       = errors.New("ticket already in progress")
)

// ValidationError is a rejected submission. The message is shown to
// the requester as-is.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func missingRequired() error {
	return &ValidationError{msg: "필수 항목을 모두 입력해 주세요."}
}

func missingRequiredOrConsent() error {
	return &ValidationError{msg: "필수 항목을 모두 입력하고 동의가 필요합니다."}
}

func invalidOption(label string) error {
	return &ValidationError{msg: label + " 값이 올바르지 않습니다."}
}

// Submission is a new ticket from the request form.
type Submission struct {
	Corporation string   `json:"corporation"`
	Department  string   `json:"department"`
	Requester   string   `json:"requester"`
	AssetNumber string   `json:"assetNumber"`
	InquiryType string   `json:"inquiryType"`
	Urgency     string   `json:"urgency"`
	IssueTypes  []string `json:"issueTypes"`
	Location    string   `json:"location"`
	Detail      string   `json:"detail"`
	Consent     bool     `json:"consent"`
}

// OptionSet is the select options a ticket form offers, read from the
// collection schema.
type OptionSet struct {
	Corporations []string `json:"corporations"`
	Urgencies    []string `json:"urgencies"`
	InquiryTypes []string `json:"inquiryTypes,omitempty"`
	IssueTypes   []string `json:"issueTypes,omitempty"`
}

// Service runs the ticket operations against the external store.
type Service struct {
	client *notion.Client
	types  map[Kind]Type
}

func NewService(client *notion.Client, types ...Type) *Service {
	m := make(map[Kind]Type, len(types))
	for _, t := range types {
		m[t.Kind] = t
	}
	return &Service{client: client, types: m}
}

// Type resolves a kind from a URL segment.
func (s *Service) Type(kind Kind) (Type, error) {
	t, ok := s.types[kind]
	if !ok {
		return Type{}, fmt.Errorf("%w: %s", ErrUnknownType, kind)
	}
	return t, nil
}

// Options loads the form's select options from the collection schema.
func (s *Service) Options(ctx context.Context, t Type) (*OptionSet, error) {
	schema, err := s.client.GetDatabase(ctx, t.DatabaseID)
	if err != nil {
		return nil, err
	}

	set := &OptionSet{
		Corporations: schema.Options(t.Fields.Corporation),
		Urgencies:    schema.Options(t.Fields.Urgency),
	}
	if t.Fields.InquiryType != "" {
		set.InquiryTypes = schema.Options(t.Fields.InquiryType)
	}
	if t.Fields.IssueType != "" {
		set.IssueTypes = schema.Options(t.Fields.IssueType)
	}
	return set, nil
}

// Create validates a submission against the collection schema and
// writes the record. Returns the new record's ID.
func (s *Service) Create(ctx context.Context, t Type, sub Submission) (string, error) {
	sub = normalize(sub)

	// Issue types are optional even on types that carry the field;
	// unknown values are still rejected below.
	missing := sub.Corporation == "" || sub.Detail == "" || sub.Urgency == "" || sub.Requester == ""
	if t.Fields.InquiryType != "" && sub.InquiryType == "" {
		missing = true
	}
	if t.Fields.Consent != "" {
		if missing || !sub.Consent {
			return "", missingRequiredOrConsent()
		}
	} else if missing {
		return "", missingRequired()
	}

	options, err := s.Options(ctx, t)
	if err != nil {
		return "", err
	}
	if !slices.Contains(options.Corporations, sub.Corporation) {
		return "", invalidOption("법인")
	}
	if !slices.Contains(options.Urgencies, sub.Urgency) {
		return "", invalidOption("긴급도")
	}
	if t.Fields.InquiryType != "" && !slices.Contains(options.InquiryTypes, sub.InquiryType) {
		return "", invalidOption("문의 유형")
	}
	for _, issue := range sub.IssueTypes {
		if !slices.Contains(options.IssueTypes, issue) {
			return "", invalidOption("고장 내역")
		}
	}

	title := clampText(sub.Detail)
	if title == "" {
		title = sub.Requester + "님의 문의"
	}

	properties := map[string]any{
		t.Fields.Title: notion.TitleProperty(title),
	}
	put := func(field string, value map[string]any) {
		if field != "" && value != nil {
			properties[field] = value
		}
	}
	put(t.Fields.Corporation, notion.SelectProperty(sub.Corporation))
	put(t.Fields.Urgency, notion.SelectProperty(sub.Urgency))
	put(t.Fields.InquiryType, notion.SelectProperty(sub.InquiryType))
	put(t.Fields.IssueType, notion.MultiSelectProperty(sub.IssueTypes))
	put(t.Fields.Department, notion.TextProperty(sub.Department))
	put(t.Fields.Requester, notion.TextProperty(sub.Requester))
	put(t.Fields.AssetNumber, notion.TextProperty(sub.AssetNumber))
	put(t.Fields.Location, notion.TextProperty(sub.Location))
	if t.Fields.Consent != "" {
		put(t.Fields.Consent, notion.CheckboxProperty(sub.Consent))
	}

	page, err := s.client.CreatePage(ctx, notion.Parent{DataSourceID: t.DataSourceID}, properties)
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

// Detail fetches one ticket and maps it through the type's field
// table.
func (s *Service) Detail(ctx context.Context, t Type, ticketID string) (*Detail, error) {
	page, err := s.client.GetPage(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return mapDetail(t, page), nil
}

// Cancel withdraws a ticket when the cancel policy still allows it,
// archiving the record. The policy failures map to distinct errors so
// the handler can tell the requester why.
func (s *Service) Cancel(ctx context.Context, t Type, ticketID string) error {
	detail, err := s.Detail(ctx, t, ticketID)
	if err != nil {
		return err
	}

	state := detail.State()
	switch {
	case state.Archived:
		return ErrAlreadyCanceled
	case !policy.Cancelable(policy.TicketState{Assignee: state.Assignee}):
		return ErrAssigneeAssigned
	case !policy.Cancelable(state):
		return ErrInProgress
	}

	return s.client.ArchivePage(ctx, ticketID)
}

func normalize(sub Submission) Submission {
	sub.Corporation = sanitize(sub.Corporation)
	sub.Department = sanitize(sub.Department)
	sub.Requester = sanitize(sub.Requester)
	sub.AssetNumber = sanitize(sub.AssetNumber)
	sub.InquiryType = sanitize(sub.InquiryType)
	sub.Urgency = sanitize(sub.Urgency)
	sub.Location = sanitize(sub.Location)
	sub.Detail = sanitize(sub.Detail)

	issues := make([]string, 0, len(sub.IssueTypes))
	for _, issue := range sub.IssueTypes {
		if v := sanitize(issue); v != "" {
			issues = append(issues, v)
		}
	}
	sub.IssueTypes = issues
	return sub
}

func formatPrice(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
