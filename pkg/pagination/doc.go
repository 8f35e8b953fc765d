// Package pagination turns the token-paginated People list endpoint into a
// single lazy sequence of detail records.
//
// The People service lists identifiers one page at a time and returns a
// continuation token with every page except the last. Details must be fetched
// one id at a time. This package:
//   - Fetches a list page, then all of its details concurrently (PageFetcher)
//   - Drops details that fail and logs them, keeping the rest of the page
//   - Chains pages by token into an iter.Seq (Stream), up to MaxDepth pages
//   - Ends the sequence quietly on a list failure (partial results stand)
//
// Example usage:
//
//	fetcher := pagination.NewPageFetcher(peopleClient, peopleClient, pagination.DefaultConfig(), logger)
//	stream := pagination.NewStream(fetcher, logger)
//	for person := range stream.All(ctx) {
//		fmt.Println(person.Name)
//	}
//	if stream.State() == pagination.StateFailed {
//		// stream.Err() holds the swallowed list error
//	}
//
// Breaking out of the range loop stops the stream: no further pages are
// requested.
package pagination
