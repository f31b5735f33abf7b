// Package charts renders dashboard aggregations as SVG documents.
//
// Charts use go-chart default styles. Every renderer returns the SVG bytes
// so the HTTP layer can inline them into the page.
package charts
