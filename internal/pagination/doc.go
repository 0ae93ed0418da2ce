// Package pagination sizes pages and page-button windows from live viewport geometry.
//
// The viewport is measured in terminal cells: Width in columns, Height in rows.
package pagination
