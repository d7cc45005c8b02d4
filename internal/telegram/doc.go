// Package telegram is a minimal Bot API client covering the two calls the
// pipeline needs: uploading a document to a storage channel and posting a
// message with inline URL buttons to the publish channel.
//
// Uploads are streamed from disk through a multipart pipe so large episodes
// are never held in memory.
package telegram
