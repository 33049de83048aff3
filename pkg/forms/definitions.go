package forms

import (
	"strconv"

	"github.com/goliatone/go-trscan/pkg/lookup"
	"github.com/goliatone/go-trscan/pkg/model"
)

// Form identifiers. Option panels share the identifier of the widget kind
// that renders them.
const (
	TrscanOptionsID     = "trscan-options"
	ExclusionContentID  = "exclusion-content"
	FPContentID         = "fp-content"
	AnalysisContentID   = "analysis-content"
	LanguageContentID   = "language-content"
	OpenXMLContentID    = "openxml-content"
	LoadFilesContentID  = "load-files"
	WYSIWYGContentID    = "wysiwyg-content"
	CoverPageID         = "cover-page"
	TableOfContentsID   = "table-of-contents"
	ReportOptionsID     = "report-options"
	FindingFilterID     = "finding-filter"
	EndpointFilterID    = "endpoint-filter"
	CustomReportJSONID  = "custom-report-json"
	customReportJSONKey = "json"
)

// Report output formats offered by the report options form.
const (
	ReportTypeAsciiDoc = "AsciiDoc"
	ReportTypePDF      = "PDF"
	ReportTypeHTML     = "HTML"
)

var yesNo = []model.Option{{Value: "0", Label: "No"}, {Value: "1", Label: "Yes"}}

var triState = []model.Option{
	{Value: "unknown", Label: "Unknown"},
	{Value: "true", Label: "Yes"},
	{Value: "false", Label: "No"},
}

var targetBrowsers = []model.Option{
	{Value: "Any", Label: "Any Browser"},
	{Value: "Edge_Chromium", Label: "Internet Explorer Edge Chromium"},
	{Value: "Edge", Label: "Internet Explorer Edge"},
	{Value: "IE11", Label: "Internet Explorer 11"},
	{Value: "IE8_10", Label: "Internet Explorer (8-10)"},
	{Value: "IE6_7", Label: "Internet Explorer (6-7)"},
	{Value: "Chrome", Label: "Chrome"},
	{Value: "Safari", Label: "Safari"},
	{Value: "FireFox", Label: "FireFox"},
	{Value: "Opera_Chromium", Label: "Opera Chromium"},
	{Value: "Opera", Label: "Opera"},
}

var cppTargets = []model.Option{
	{Value: "cppGeneric", Label: "Generic"},
	{Value: "cppEmbedded", Label: "Embedded"},
	{Value: "cppUnixLinux32", Label: "Unix/Linux 32"},
	{Value: "cppUnixLinu64", Label: "Unix/Linux 64"},
	{Value: "cppWin32A", Label: "Win32A (ASCII)"},
	{Value: "cppWin32W", Label: "Win32W (UNICODE)"},
	{Value: "cppWin64", Label: "Win64"},
}

var cppCompilers = []model.Option{
	{Value: "setGCC", Label: "GCC"},
	{Value: "setIBMXL", Label: "IBM XL C/C++"},
	{Value: "setHP", Label: "HP C/ac++"},
	{Value: "setSun", Label: "Sun Pro C/C++"},
	{Value: "setLLVM", Label: "LLVM Clang"},
	{Value: "setARM", Label: "ARM RealView"},
	{Value: "setARC", Label: "ARC MQX Synopsys"},
	{Value: "setAtmel", Label: "Atmel AVR Studio"},
	{Value: "setAtollic", Label: "Atollic True Studio"},
	{Value: "setAvocet", Label: "Avocet ProTools"},
	{Value: "setBatronix", Label: "Batronix uC51"},
	{Value: "setBiPOM", Label: "BiPOM Electronics"},
	{Value: "setByte", Label: "Byte Craft eTPU C"},
	{Value: "setCCS", Label: "CCS PIC/dsPIC/DSC"},
	{Value: "setCeibo", Label: "Ceibo-8051C++"},
	{Value: "setCodeWarrior", Label: "CodeWarrior"},
	{Value: "setCosmic", Label: "Cosmic Software"},
	{Value: "setCrossware", Label: "Crossware"},
	{Value: "setELLCC", Label: "ELLCC C/C++"},
	{Value: "setGreenHills", Label: "Green Hills Multi"},
	{Value: "setHighTec", Label: "HighTec"},
	{Value: "setIAR", Label: "IAR C/C++"},
	{Value: "setINRIA", Label: "INRIA CompCert"},
	{Value: "setIntel", Label: "Intel C/C++"},
	{Value: "setIntrol", Label: "Introl C Compiler"},
	{Value: "setKeil", Label: "Keil ARm C/C++"},
	{Value: "setMentor", Label: "Mentor Graphics CodeSourcery"},
	{Value: "setMicroChip", Label: "MicroChip MPLAB"},
	{Value: "setMikroC", Label: "MikroC Pro"},
	{Value: "setNXP", Label: "NXP"},
	{Value: "setRenesas", Label: "Renesas HEW"},
	{Value: "setSDCC", Label: "SDCC"},
	{Value: "setSoftools", Label: "Softools Z/Rabbit"},
	{Value: "setTasking", Label: "Tasking ESD"},
}

var industryStandards = []model.Option{
	{Value: "Misra", Label: "MISRA"},
	{Value: "Cert", Label: "CERT"},
}

var cobolTargets = []model.Option{
	{Value: "IBMZOS", Label: "IBM z/OS Enterprise COBOL"},
	{Value: "MicroFocus", Label: "Micro Focus COBOL"},
}

var cobolStatements = []model.Option{
	{Value: "COBOL88", Label: "88"},
	{Value: "COBOL132", Label: "132"},
	{Value: "COBOLFree", Label: "Free Format"},
}

var reportTypes = []model.Option{
	{Value: ReportTypeAsciiDoc, Label: "AsciiDoc"},
	{Value: ReportTypePDF, Label: "PDF"},
	{Value: ReportTypeHTML, Label: "HTML"},
}

var tocDepths = []model.Option{
	{Value: "1", Label: "Level 1"},
	{Value: "2", Label: "Level 2"},
	{Value: "3", Label: "Level 3"},
}

var severities = []model.Option{
	{Value: "", Label: "Any"},
	{Value: "Critical", Label: "Critical"},
	{Value: "High", Label: "High"},
	{Value: "Medium", Label: "Medium"},
	{Value: "Low", Label: "Low"},
	{Value: "Info", Label: "Info"},
}

func dateRanges() []model.Option {
	out := []model.Option{{Value: "", Label: lookup.DateRange(0).String()}}
	for code := lookup.Today; code <= lookup.PastYear; code++ {
		out = append(out, model.Option{Value: strconv.Itoa(int(code)), Label: code.String()})
	}
	return out
}

func integer(name, label string, initial int) model.Field {
	return model.Field{Name: name, Type: model.FieldTypeInteger, Label: label, Default: initial}
}

func boolean(name, label string, initial bool) model.Field {
	return model.Field{Name: name, Type: model.FieldTypeBoolean, Label: label, Default: initial}
}

func choice(name, label string, options []model.Option, initial string) model.Field {
	field := model.Field{Name: name, Type: model.FieldTypeChoice, Label: label, Options: options}
	if initial != "" {
		field.Default = initial
	}
	return field
}

// marker is a read-only, one character field used as a section heading
// inside the language panel.
func marker(name, label string) model.Field {
	return model.Field{
		Name:        name,
		Type:        model.FieldTypeString,
		Label:       label,
		ReadOnly:    true,
		Validations: []model.ValidationRule{maxLength(1)},
	}
}

func folder(name, label string) model.Field {
	return model.Field{
		Name:  name,
		Type:  model.FieldTypePath,
		Label: label,
		Path:  &model.PathConstraint{AllowFolders: true, Recursive: true},
	}
}

func file(name, label string, required bool) model.Field {
	return model.Field{
		Name:     name,
		Type:     model.FieldTypePath,
		Label:    label,
		Required: required,
		Path:     &model.PathConstraint{AllowFiles: true},
	}
}

func text(name, label string, max int, initial string) model.Field {
	field := model.Field{Name: name, Type: model.FieldTypeString, Label: label}
	if max > 0 {
		field.Validations = []model.ValidationRule{maxLength(max)}
	}
	if initial != "" {
		field.Default = initial
	}
	return field
}

func editor(name string) model.Field {
	return model.Field{
		Name:    name,
		Type:    model.FieldTypeText,
		UIHints: map[string]string{"control": ControlEditor, "hideLabel": "true"},
	}
}

func hiddenContent() model.Field {
	return model.Field{Name: "hidden_content", Type: model.FieldTypeText, Hidden: true, Required: true}
}

func maxLength(n int) model.ValidationRule {
	return model.ValidationRule{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": strconv.Itoa(n)}}
}

// TrscanOptions describes the scan being configured.
func TrscanOptions() model.FormModel {
	name := text("scan_name", "Scan Name", 100, "")
	name.Required = true
	source := folder("source_folder", "Source Folder")
	source.Required = true
	return model.FormModel{
		ID:    TrscanOptionsID,
		Title: "Scan Details",
		Fields: []model.Field{
			name,
			integer("product", "Product", 0),
			source,
			{Name: "description", Type: model.FieldTypeText, Label: "Description"},
		},
	}
}

// ExclusionContent selects the exclusion list file.
func ExclusionContent() model.FormModel {
	return model.FormModel{
		ID:     ExclusionContentID,
		Title:  "Exclusion List",
		Fields: []model.Field{file("exclusions", "Exclusion List", false)},
	}
}

// FPContent selects the false positives file.
func FPContent() model.FormModel {
	return model.FormModel{
		ID:     FPContentID,
		Title:  "False Positives",
		Fields: []model.Field{file("exclusions", "False Positives", true)},
	}
}

// AnalysisContent holds the analysis switches passed to the scanner.
func AnalysisContent() model.FormModel {
	return model.FormModel{
		ID:    AnalysisContentID,
		Title: "Analysis Options",
		Fields: []model.Field{
			integer("linesBefore", "Source Code Lines Before", 5),
			integer("linesAfter", "Source Code Lines After", 4),
			integer("warningTimeOut", "Warning TimeOut", 50),
			integer("maxVulnPerLine", "Max vulnerabilities per line of code", 3),
			integer("maxVulnIssues", "Max vulnerabilities issues", 1500),
			boolean("applyExclusionList", "Apply Exclusion List", true),
			boolean("trustedApplication", "Trusted Application", true),
			boolean("internetApplication", "Internet Application", false),
			choice("targetBrowser", "Target Browser", targetBrowsers, ""),
			boolean("attackVectors", "Attack Vectors", false),
			boolean("baseline", "Baseline", false),
			marker("trusted", "Trusted Environments"),
			boolean("publicFunctions", "Public Functions", true),
			boolean("dbQueries", "DB Queries", true),
			boolean("envVariables", "Environment Variables", false),
			boolean("socket", "Socket", false),
			boolean("servlet", "Servlet/WS Requests", false),
			boolean("noDeadCode", ".NET - No Dead Code for Partial Classes", true),
			folder("defaultSourceFolder", "Default Source Folder"),
		},
	}
}

// LanguageContent holds the per-language targets passed to the scanner.
func LanguageContent() model.FormModel {
	cobolTarget := choice("targetCobol", "Target COBOL Version", cobolTargets, "")
	cobolTarget.Description = "* Legacy Versions, like AcuCOBOL-GT, VS-COBOL-II, Oracle*Pro COBOL, RM-COBOL, " +
		"Hitachi COBOL pr CA-REALIA, are not reported because they are discontinued"
	standard := choice("targetCertMisra", "Industry Standard", industryStandards, "")
	standard.Validations = []model.ValidationRule{maxLength(5)}

	return model.FormModel{
		ID:    LanguageContentID,
		Title: "Language Options",
		Fields: []model.Field{
			marker("cpp", "C/C++"),
			choice("targetCPP", "C/C++ Target Platforms", cppTargets, "cppGeneric"),
			choice("targetSet", "C/C++ Compiler", cppCompilers, "setGCC"),
			standard,
			marker("cobol", "COBOL"),
			cobolTarget,
			choice("statementCobol", "Statement Length", cobolStatements, "COBOL88"),
			boolean("untrustedWS", "Untrusted Working Storage", false),
			boolean("allowCICSProgramming", "Allow CICS System Programming", true),
			folder("copybookFolder", "CopyBook Folder"),
			marker("rubyLang", "Ruby"),
			folder("rubyFolder", "Ruby Folder"),
			marker("pythonLang", "Python"),
			folder("pythonFolder", "Python Folder"),
		},
	}
}

// OpenXMLContent loads a previous scan from its XML export.
func OpenXMLContent() model.FormModel {
	return model.FormModel{
		ID:     OpenXMLContentID,
		Title:  "Open XML Analysis",
		Fields: []model.Field{file("exclusions", "Open XML Analysis", false)},
	}
}

// LoadFilesContent lists the files to analyse as rich text.
func LoadFilesContent() model.FormModel {
	return model.FormModel{
		ID:    LoadFilesContentID,
		Title: "Load Files",
		Fields: []model.Field{
			text("heading", "Heading", 80, "Load Files"),
			editor("content"),
			hiddenContent(),
		},
	}
}

// WYSIWYGContent is a free rich-text report section.
func WYSIWYGContent() model.FormModel {
	return model.FormModel{
		ID:    WYSIWYGContentID,
		Title: "Wysiwyg Content",
		Fields: []model.Field{
			text("heading", "Heading", 200, "WYSIWYG Content"),
			editor("content"),
			hiddenContent(),
		},
	}
}

// CoverPage is the report cover.
func CoverPage() model.FormModel {
	return model.FormModel{
		ID:    CoverPageID,
		Title: "Cover Page",
		Fields: []model.Field{
			text("heading", "Heading", 200, "Static Analysis Report"),
			text("sub_heading", "Sub Heading", 200, ""),
			{Name: "meta_info", Type: model.FieldTypeText, Label: "Meta Info"},
		},
	}
}

// TableOfContents configures the report table of contents.
func TableOfContents() model.FormModel {
	return model.FormModel{
		ID:    TableOfContentsID,
		Title: "Table Of Contents",
		Fields: []model.Field{
			text("heading", "Heading", 200, "Table of Contents"),
			choice("depth", "Depth", tocDepths, "2"),
		},
	}
}

// ReportOptions selects the report name, format and content flags.
func ReportOptions() model.FormModel {
	name := text("report_name", "Report Name", 100, "")
	return model.FormModel{
		ID:    ReportOptionsID,
		Title: "Report Options",
		Fields: []model.Field{
			name,
			choice("include_finding_notes", "Finding Notes", yesNo, "0"),
			choice("include_finding_images", "Finding Images", yesNo, "0"),
			choice("report_type", "Report Format", reportTypes, ReportTypeAsciiDoc),
		},
	}
}

// FindingFilter is the filter panel of the finding list widget.
func FindingFilter() model.FormModel {
	cwe := integer("cwe", "CWE", 0)
	cwe.Default = nil
	test := integer("test", "Test", 0)
	test.Default = nil
	product := integer("test__engagement__product", "Product", 0)
	product.Default = nil

	return model.FormModel{
		ID:    FindingFilterID,
		Title: "Filter Findings",
		Fields: []model.Field{
			text("title", "Title", 0, ""),
			choice("date", "Date", dateRanges(), ""),
			choice("severity", "Severity", severities, ""),
			choice("active", "Active", triState, "unknown"),
			choice("verified", "Verified", triState, "unknown"),
			choice("false_p", "False Positive", triState, "unknown"),
			choice("duplicate", "Duplicate", triState, "unknown"),
			choice("out_of_scope", "Out Of Scope", triState, "unknown"),
			text("tags", "Tags", 0, ""),
			cwe,
			text("component_name", "Component Name", 0, ""),
			test,
			product,
		},
	}
}

// EndpointFilter is the filter panel of the endpoint list widget.
func EndpointFilter() model.FormModel {
	product := integer("product", "Product", 0)
	product.Default = nil
	return model.FormModel{
		ID:    EndpointFilterID,
		Title: "Filter Endpoints",
		Fields: []model.Field{
			text("host", "Host", 0, ""),
			text("protocol", "Protocol", 0, ""),
			text("path", "Path", 0, ""),
			product,
		},
	}
}

// CustomReportJSON is the single field posted by the report builder.
func CustomReportJSON() model.FormModel {
	return model.FormModel{
		ID: CustomReportJSONID,
		Fields: []model.Field{
			{Name: customReportJSONKey, Type: model.FieldTypeText, Required: true, Hidden: true},
		},
	}
}

var definitions = map[string]func() model.FormModel{
	TrscanOptionsID:    TrscanOptions,
	ExclusionContentID: ExclusionContent,
	FPContentID:        FPContent,
	AnalysisContentID:  AnalysisContent,
	LanguageContentID:  LanguageContent,
	OpenXMLContentID:   OpenXMLContent,
	LoadFilesContentID: LoadFilesContent,
	WYSIWYGContentID:   WYSIWYGContent,
	CoverPageID:        CoverPage,
	TableOfContentsID:  TableOfContents,
	ReportOptionsID:    ReportOptions,
	FindingFilterID:    FindingFilter,
	EndpointFilterID:   EndpointFilter,
	CustomReportJSONID: CustomReportJSON,
}

// Lookup returns a fresh copy of the form registered under id.
func Lookup(id string) (model.FormModel, bool) {
	build, ok := definitions[id]
	if !ok {
		return model.FormModel{}, false
	}
	return build(), true
}
