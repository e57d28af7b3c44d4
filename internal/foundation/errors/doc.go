// Package errors classifies themebuilder failures so the CLI can pick an
// exit code and the live-reload listener an HTTP status.
//
//	err := errors.WrapError(cause, errors.CategoryTransform, "sass compile failed").
//		WithFile("sass/style.scss").
//		Build()
package errors
