package forms

import (
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-trscan/pkg/model"
)

type editorButton struct {
	command string
	title   string
	icon    string
}

// editorToolbar groups the rich-text commands shown above editor controls.
var editorToolbar = [][]editorButton{
	{
		{command: "bold", title: "Bold (Ctrl/Cmd+B)", icon: "fa-bold"},
		{command: "italic", title: "Italic (Ctrl/Cmd+I)", icon: "fa-italic"},
		{command: "strikethrough", title: "Strikethrough", icon: "fa-strikethrough"},
		{command: "underline", title: "Underline (Ctrl/Cmd+U)", icon: "fa-underline"},
	},
	{
		{command: "insertunorderedlist", title: "Bullet list", icon: "fa-list-ul"},
		{command: "insertorderedlist", title: "Number list", icon: "fa-list-ol"},
		{command: "outdent", title: "Reduce indent (Shift+Tab)", icon: "fa-outdent"},
		{command: "indent", title: "Indent (Tab)", icon: "fa-indent"},
	},
	{
		{command: "justifyleft", title: "Align Left (Ctrl/Cmd+L)", icon: "fa-align-left"},
		{command: "justifycenter", title: "Center (Ctrl/Cmd+E)", icon: "fa-align-center"},
		{command: "justifyright", title: "Align Right (Ctrl/Cmd+R)", icon: "fa-align-right"},
		{command: "justifyfull", title: "Justify (Ctrl/Cmd+J)", icon: "fa-align-justify"},
	},
	{
		{command: "unlink", title: "Remove Hyperlink", icon: "fa-unlink"},
	},
	{
		{command: "undo", title: "Undo (Ctrl/Cmd+Z)", icon: "fa-undo"},
		{command: "redo", title: "Redo (Ctrl/Cmd+Y)", icon: "fa-repeat"},
	},
}

// HTMLOptions customises RenderHTML.
type HTMLOptions struct {
	// Controls resolves the control per field. DefaultControls when nil.
	Controls *Controls
	// Prefix namespaces control ids when several forms share a page.
	Prefix string
	// Errors are rendered below the matching field.
	Errors map[string][]string
}

// RenderHTML renders the field markup for form populated with values. Absent
// values fall back to each field's initial value.
func RenderHTML(form model.FormModel, values Values, opts HTMLOptions) string {
	controls := opts.Controls
	if controls == nil {
		controls = DefaultControls()
	}

	var builder strings.Builder
	for _, field := range form.Fields {
		value, ok := values[field.Name]
		if !ok {
			value = field.Default
		}
		control := controls.Resolve(field)
		id := controlID(opts.Prefix, field.Name)
		builder.WriteString(buildFieldMarkup(field, control, id, renderControl(field, control, id, value), opts.Errors[field.Name]))
	}
	return builder.String()
}

func controlID(prefix, name string) string {
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		return "id_" + prefix + "-" + name
	}
	return "id_" + name
}

func buildFieldMarkup(field model.Field, controlName, id, control string, errs []string) string {
	if controlName == ControlHidden {
		return control + "\n"
	}

	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="form-group`)
	if len(errs) > 0 {
		builder.WriteString(` has-error`)
	}
	if cls := field.UIHints["cssClass"]; cls != "" {
		builder.WriteByte(' ')
		builder.WriteString(html.EscapeString(cls))
	}
	builder.WriteString(`" data-control="`)
	builder.WriteString(html.EscapeString(controlName))
	builder.WriteString("\">\n")

	if field.Label != "" && field.UIHints["hideLabel"] != "true" {
		builder.WriteString(`    <label for="`)
		builder.WriteString(html.EscapeString(id))
		builder.WriteString(`" class="control-label">`)
		builder.WriteString(html.EscapeString(field.Label))
		if field.Required {
			builder.WriteString(`<span class="asteriskField">*</span>`)
		}
		builder.WriteString("</label>\n")
	}

	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString("    ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	if desc := strings.TrimSpace(field.Description); desc != "" {
		builder.WriteString(`    <p class="help-block">`)
		builder.WriteString(html.EscapeString(desc))
		builder.WriteString("</p>\n")
	}
	for _, msg := range errs {
		builder.WriteString(`    <span class="help-block error">`)
		builder.WriteString(html.EscapeString(msg))
		builder.WriteString("</span>\n")
	}

	builder.WriteString("</div>\n")
	return builder.String()
}

func renderControl(field model.Field, control, id string, value any) string {
	name := html.EscapeString(field.Name)
	idAttr := html.EscapeString(id)
	text := ""
	if value != nil {
		text = fmt.Sprint(value)
	}
	escaped := html.EscapeString(text)

	switch control {
	case ControlHidden:
		return fmt.Sprintf(`<input type="hidden" name="%s" id="%s" value="%s">`, name, idAttr, escaped)
	case ControlReadOnly:
		return fmt.Sprintf(`<input type="text" name="%s" id="%s" class="form-control" value="%s" readonly>`, name, idAttr, escaped)
	case ControlCheckbox:
		checked := ""
		if b, ok := value.(bool); ok && b {
			checked = " checked"
		}
		return fmt.Sprintf(`<input type="checkbox" name="%s" id="%s"%s>`, name, idAttr, checked)
	case ControlSelect:
		var b strings.Builder
		fmt.Fprintf(&b, "<select name=\"%s\" id=\"%s\" class=\"form-control\">\n", name, idAttr)
		for _, opt := range field.Options {
			selected := ""
			if opt.Value == text {
				selected = " selected"
			}
			fmt.Fprintf(&b, "  <option value=\"%s\"%s>%s</option>\n", html.EscapeString(opt.Value), selected, html.EscapeString(opt.Label))
		}
		b.WriteString("</select>")
		return b.String()
	case ControlPath:
		return renderPathControl(field, name, idAttr, escaped)
	case ControlNumber:
		return fmt.Sprintf(`<input type="number" name="%s" id="%s" class="form-control" value="%s">`, name, idAttr, escaped)
	case ControlTextarea:
		return fmt.Sprintf("<textarea name=\"%s\" id=\"%s\" class=\"form-control\" rows=\"10\">%s</textarea>", name, idAttr, escaped)
	case ControlEditor:
		return renderEditor(idAttr, SanitizeRichText(text))
	default:
		maxAttr := ""
		if rule, ok := field.Rule(model.ValidationRuleMaxLength); ok {
			maxAttr = fmt.Sprintf(` maxlength="%s"`, html.EscapeString(rule.Params["value"]))
		}
		return fmt.Sprintf(`<input type="text" name="%s" id="%s" class="form-control" value="%s"%s>`, name, idAttr, escaped, maxAttr)
	}
}

func renderPathControl(field model.Field, name, id, value string) string {
	var choices []string
	if field.Path != nil {
		choices, _ = ListPaths(*field.Path)
	}
	if len(choices) == 0 {
		return fmt.Sprintf(`<input type="text" name="%s" id="%s" class="form-control" value="%s">`, name, id, value)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<select name=\"%s\" id=\"%s\" class=\"form-control\">\n", name, id)
	if !field.Required {
		b.WriteString("  <option value=\"\">---------</option>\n")
	}
	for _, choice := range choices {
		escaped := html.EscapeString(choice)
		selected := ""
		if escaped == value {
			selected = " selected"
		}
		fmt.Fprintf(&b, "  <option value=\"%s\"%s>%s</option>\n", escaped, selected, escaped)
	}
	b.WriteString("</select>")
	return b.String()
}

func renderEditor(id, content string) string {
	var b strings.Builder
	b.WriteString(`<div class="btn-toolbar" data-role="editor-toolbar" data-target="#`)
	b.WriteString(id)
	b.WriteString("\">\n")
	for _, group := range editorToolbar {
		b.WriteString("  <div class=\"btn-group\">")
		for _, button := range group {
			fmt.Fprintf(&b, `<a class="btn btn-default" data-edit="%s" title="%s"><i class="fa %s"></i></a>`,
				button.command, html.EscapeString(button.title), button.icon)
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>\n")
	fmt.Fprintf(&b, "<div id=\"%s\" class=\"editor\" style=\"width:100%%;min-height:400px\">%s</div>", id, content)
	return b.String()
}
