// Package template defines the template engine seam shared by widgets, report
// renderers and HTTP pages. The pongo2 backed implementation lives in the
// gotemplate subpackage.
package template
