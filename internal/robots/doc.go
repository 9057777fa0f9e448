// Package robots fetches and evaluates robots.txt crawl rules.
//
// Only the wildcard user-agent group is honored. The parsed Rules type
// implements the crawler's enqueue policy, so respecting robots.txt is
// a matter of fetching the rules once per site and handing them to the
// crawler. A site without a robots.txt allows everything.
package robots
