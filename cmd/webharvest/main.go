// Package main provides the entry point for the WebHarvest CLI.
//
// WebHarvest is a breadth-first website crawler with declarative field
// extraction. It fetches pages wave by wave from a start URL, applies a
// CSS selector map to each page, and stores the extracted records.
//
// Usage:
//
//	webharvest crawl <url>
//	webharvest crawl --selector title=h1 --depth 2 <url>
//	webharvest serve
//
// See --help for all available options.
package main

// main is the entry point for WebHarvest.
func main() {
	Execute()
}
