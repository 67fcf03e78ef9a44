package cache

import (
	"context"
	"fmt"
)

func ExampleStore() {
	// A nil client runs the Store in fallback-only mode, which is handy for
	// tests and local development.
	store := New(nil)
	ctx := context.Background()

	store.Set(ctx, "Wikipedia", "ada lovelace", []string{"mathematician", "writer"})

	var tags []string
	if store.Get(ctx, "Wikipedia", "ada lovelace", &tags) {
		fmt.Println(tags[0])
	}
	// Output:
	// mathematician
}
