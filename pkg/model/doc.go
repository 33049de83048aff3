// Package model defines the typed form model shared by the option forms, the
// field control registry and the renderers. Fields carry their label, help
// text, initial value and constraints so option panels can be rendered to
// HTML, prompted for in a terminal, or bound from a submission without any
// per-form code. The curated UIHints map surfaces renderer-facing directives
// such as `control`, `cssClass` and `hideLabel`.
package model
