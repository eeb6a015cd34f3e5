// Package loaders turns external sources into documents: web pages and
// sitemaps, GitHub issues and repositories, PDFs.
//
// Every loader implements the Loader interface and can optionally run its
// documents through an excerpt builder so they come out chunked and ready
// to upsert. MultiLoader fans out over several loaders with bounded
// concurrency.
package loaders
