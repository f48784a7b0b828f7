// Package sitecrawl provides a concurrent, single-domain web crawler.
// Starting from a seed URL it follows same-domain hyperlinks until no work
// remains or a page budget is exhausted, and reports the pages it visited.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, http/, sqlite/).
package sitecrawl
