// Package githubapi resolves version tokens against a repository's GitHub
// releases and downloads the selected artifacts. It is a pure query layer:
// no retries, no caching, no side effects beyond the HTTP calls.
package githubapi
