package notion

import "strings"

// Page is one record in a collection. Only the fields the handlers
// read are modelled; everything else in the store's payload is
// ignored.
type Page struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	CreatedTime    string     `json:"created_time"`
	LastEditedTime string     `json:"last_edited_time"`
	Archived       bool       `json:"archived"`
	Properties     Properties `json:"properties"`
}

// Properties is a record's typed property bag keyed by field name.
type Properties map[string]Property

// Property is one value in a property bag. The store tags each value
// with its type; unused variants stay nil.
type Property struct {
	Type        string     `json:"type"`
	Title       []RichText `json:"title"`
	RichText    []RichText `json:"rich_text"`
	Select      *Option    `json:"select"`
	Status      *Option    `json:"status"`
	MultiSelect []Option   `json:"multi_select"`
	People      []Person   `json:"people"`
	Files       []File     `json:"files"`
	Date        *Date      `json:"date"`
	Number      *float64   `json:"number"`
	Checkbox    *bool      `json:"checkbox"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

type Option struct {
	Name string `json:"name"`
}

type Person struct {
	Name string `json:"name"`
}

type File struct {
	Name string `json:"name"`
}

type Date struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PlainText joins the text fragments of a title or rich_text field.
func (p Properties) PlainText(name string) string {
	prop, ok := p[name]
	if !ok {
		return ""
	}
	fragments := prop.Title
	if len(fragments) == 0 {
		fragments = prop.RichText
	}
	var b strings.Builder
	for _, f := range fragments {
		if f.PlainText != "" {
			b.WriteString(f.PlainText)
		} else {
			b.WriteString(f.Text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

// SelectName returns the chosen option of a select or status field.
func (p Properties) SelectName(name string) string {
	prop, ok := p[name]
	if !ok {
		return ""
	}
	if prop.Select != nil {
		return prop.Select.Name
	}
	if prop.Status != nil {
		return prop.Status.Name
	}
	return ""
}

// MultiSelectNames returns the chosen options of a multi_select field.
func (p Properties) MultiSelectNames(name string) []string {
	prop, ok := p[name]
	if !ok {
		return nil
	}
	var names []string
	for _, o := range prop.MultiSelect {
		if o.Name != "" {
			names = append(names, o.Name)
		}
	}
	return names
}

// PeopleNames returns the display names of a people field.
func (p Properties) PeopleNames(name string) []string {
	prop, ok := p[name]
	if !ok {
		return nil
	}
	var names []string
	for _, person := range prop.People {
		if person.Name != "" {
			names = append(names, person.Name)
		}
	}
	return names
}

// FileNames returns the file names of a files field.
func (p Properties) FileNames(name string) []string {
	prop, ok := p[name]
	if !ok {
		return nil
	}
	var names []string
	for _, f := range prop.Files {
		if f.Name != "" {
			names = append(names, f.Name)
		}
	}
	return names
}

// DateStart returns the start of a date field, empty when unset.
func (p Properties) DateStart(name string) string {
	if prop, ok := p[name]; ok && prop.Date != nil {
		return prop.Date.Start
	}
	return ""
}

// DateEnd returns the end of a date field, empty when unset.
func (p Properties) DateEnd(name string) string {
	if prop, ok := p[name]; ok && prop.Date != nil {
		return prop.Date.End
	}
	return ""
}

// NumberValue returns a number field and whether it was present.
func (p Properties) NumberValue(name string) (float64, bool) {
	if prop, ok := p[name]; ok && prop.Number != nil {
		return *prop.Number, true
	}
	return 0, false
}

// CheckboxValue returns a checkbox field, false when unset.
func (p Properties) CheckboxValue(name string) bool {
	if prop, ok := p[name]; ok && prop.Checkbox != nil {
		return *prop.Checkbox
	}
	return false
}

// Schema is a collection's field definitions, used to read option
// lists for form selects.
type Schema struct {
	Properties map[string]SchemaProperty `json:"properties"`
}

type SchemaProperty struct {
	Type        string      `json:"type"`
	Select      *OptionList `json:"select"`
	MultiSelect *OptionList `json:"multi_select"`
	Status      *OptionList `json:"status"`
}

type OptionList struct {
	Options []Option `json:"options"`
}

// Options returns the option names defined for a select, multi_select
// or status field, in schema order.
func (s *Schema) Options(name string) []string {
	prop, ok := s.Properties[name]
	if !ok {
		return nil
	}
	var list *OptionList
	switch {
	case prop.Select != nil:
		list = prop.Select
	case prop.MultiSelect != nil:
		list = prop.MultiSelect
	case prop.Status != nil:
		list = prop.Status
	default:
		return nil
	}
	var names []string
	for _, o := range list.Options {
		if o.Name != "" {
			names = append(names, o.Name)
		}
	}
	return names
}

// Builders for create/patch property bags. Optional builders return
// nil for empty input so absent fields stay absent in the payload.

// TitleProperty builds a title value.
func TitleProperty(content string) map[string]any {
	return map[string]any{
		"title": []any{map[string]any{"text": map[string]any{"content": content}}},
	}
}

// TextProperty builds a rich_text value, nil when empty.
func TextProperty(content string) map[string]any {
	if content == "" {
		return nil
	}
	return map[string]any{
		"rich_text": []any{map[string]any{"text": map[string]any{"content": content}}},
	}
}

// SelectProperty builds a select value, nil when empty.
func SelectProperty(name string) map[string]any {
	if name == "" {
		return nil
	}
	return map[string]any{"select": map[string]any{"name": name}}
}

// MultiSelectProperty builds a multi_select value, nil when empty.
func MultiSelectProperty(names []string) map[string]any {
	if len(names) == 0 {
		return nil
	}
	values := make([]any, 0, len(names))
	for _, n := range names {
		values = append(values, map[string]any{"name": n})
	}
	return map[string]any{"multi_select": values}
}

// CheckboxProperty builds a checkbox value.
func CheckboxProperty(checked bool) map[string]any {
	return map[string]any{"checkbox": checked}
}
