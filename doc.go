// Package ragkit is a toolkit for building retrieval-augmented generation
// pipelines: loading documents from the web, GitHub and PDFs, chunking them
// into token-bounded excerpts, embedding them, and storing and querying the
// vectors in a local BadgerDB or a remote Qdrant server.
//
// The Client ties the pieces together:
//
//	client, err := ragkit.NewClient()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	ns, err := client.Namespace("docs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = ns.UpsertBatched(ctx, docs)
//
// The subpackages stand on their own as well: tokenizer and splitter for
// token math, document for the excerpt pipeline, loaders for ingestion,
// vectorstore for storage.
package ragkit
