package layout

import (
	"net/url"
	"strconv"
	"strings"
)

// Spec is the typed configuration decoded from an entry.
type Spec interface {
	Kind() Kind
}

type CoverPageSpec struct {
	Heading    string
	SubHeading string
	MetaInfo   string
}

func (CoverPageSpec) Kind() Kind { return KindCoverPage }

// TableOfContentsSpec carries the heading depth already offset by one, the
// level at which report headings start.
type TableOfContentsSpec struct {
	Heading string
	Depth   int
}

func (TableOfContentsSpec) Kind() Kind { return KindTableOfContents }

// ContentSpec is a rich-text section. Content is the editor markup copied
// into the hidden field by the builder.
type ContentSpec struct {
	Panel   Kind
	Heading string
	Content string
}

func (s ContentSpec) Kind() Kind { return s.Panel }

type ReportOptionsSpec struct {
	ReportName           string
	ReportType           string
	IncludeFindingNotes  bool
	IncludeFindingImages bool
}

func (ReportOptionsSpec) Kind() Kind { return KindReportOptions }

// ListSpec holds the filter submitted for a finding or endpoint list.
type ListSpec struct {
	List   Kind
	Filter url.Values
}

func (s ListSpec) Kind() Kind { return s.List }

type PageBreakSpec struct{}

func (PageBreakSpec) Kind() Kind { return KindPageBreak }

// OptionPanelSpec holds the raw submission of a scan option panel; it is
// bound against the panel's form by the caller.
type OptionPanelSpec struct {
	Panel  Kind
	Values url.Values
}

func (s OptionPanelSpec) Kind() Kind { return s.Panel }

const defaultLoadFilesHeading = "Load Files"

// Decode converts the entry into its typed spec. Missing or invalid fields
// yield a *FieldError; unknown kinds yield ErrUnknownKind.
func (e Entry) Decode() (Spec, error) {
	switch e.Kind {
	case KindPageBreak:
		return PageBreakSpec{}, nil
	case KindFindingList, KindEndpointList:
		return ListSpec{List: e.Kind, Filter: e.Params.Values()}, nil
	case KindCoverPage:
		var spec CoverPageSpec
		err := e.require(
			field{"heading", &spec.Heading},
			field{"sub_heading", &spec.SubHeading},
			field{"meta_info", &spec.MetaInfo},
		)
		return spec, err
	case KindTableOfContents:
		var spec TableOfContentsSpec
		var depth string
		if err := e.require(field{"heading", &spec.Heading}, field{"depth", &depth}); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(depth))
		if err != nil {
			return nil, e.fieldError("depth", ErrInvalidValue)
		}
		spec.Depth = n + 1
		return spec, nil
	case KindWYSIWYGContent:
		spec := ContentSpec{Panel: e.Kind}
		err := e.require(field{"heading", &spec.Heading}, field{"hidden_content", &spec.Content})
		return spec, err
	case KindLoadFilesContent:
		spec := ContentSpec{Panel: e.Kind, Heading: defaultLoadFilesHeading}
		if heading, ok := e.Params.Get("heading"); ok && strings.TrimSpace(heading) != "" {
			spec.Heading = heading
		}
		err := e.require(field{"hidden_content", &spec.Content})
		return spec, err
	case KindReportOptions:
		var spec ReportOptionsSpec
		var notes, images string
		err := e.require(
			field{"include_finding_notes", &notes},
			field{"include_finding_images", &images},
			field{"report_type", &spec.ReportType},
			field{"report_name", &spec.ReportName},
		)
		spec.IncludeFindingNotes = notes == "1"
		spec.IncludeFindingImages = images == "1"
		return spec, err
	case KindTrscanOptions, KindExclusionContent, KindFPContent,
		KindAnalysisContent, KindLanguageContent, KindOpenXMLContent:
		return OptionPanelSpec{Panel: e.Kind, Values: e.Params.Values()}, nil
	default:
		return nil, ErrUnknownKind
	}
}

type field struct {
	name string
	dst  *string
}

func (e Entry) require(fields ...field) error {
	for _, f := range fields {
		value, ok := e.Params.Get(f.name)
		if !ok {
			return e.fieldError(f.name, ErrMissingField)
		}
		*f.dst = value
	}
	return nil
}

func (e Entry) fieldError(name string, err error) error {
	return &FieldError{Kind: e.Kind, Index: e.Index, Field: name, Err: err}
}
