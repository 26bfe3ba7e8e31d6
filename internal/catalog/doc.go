// Package catalog implements the crawl pipeline that turns PRISM directory
// listings into per-frequency JSON catalogs. A bounded worker pool walks the
// year directories discovered for every variable, and a builder serializes
// whatever the pool collected.
package catalog
