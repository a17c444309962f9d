// Package apicache maps logical API resources onto cache keys and
// encodes the invalidation rules that keep cached reads honest after
// mutations.
//
// # Keys
//
// Single entities live under "<type>:<id>". Filtered listings live in
// a sibling "<type>:list" namespace keyed by a short hash of the
// filter serialized with sorted keys, so {a:1,b:2} and {b:2,a:1}
// land on the same entry.
//
// # Invalidation
//
// [Strategy.Invalidate] removes an entity's key and clears the whole
// "<type>:list" namespace. This over-invalidates on purpose: a single
// mutation can change the membership of any number of filtered lists,
// and partial invalidation risks serving stale lists. Unrelated
// namespaces are never touched.
//
// [Strategy.InvalidateChildren] removes sub-resource entries scoped
// under a parent by enumerating the namespace and matching the
// "<parentID>:" key prefix. The store has no secondary index, so the
// cost is O(namespace size).
//
// # TTLs
//
// Each resource type carries its own entity and list TTLs, reflecting
// how quickly it goes stale. TTLs come from options or a YAML file via
// [LoadConfig]; nothing is hard-coded at call sites.
//
// # Fetch-and-cache
//
// [Strategy.GetOrFetch] (and the typed [Fetch]) is the read-through
// contract for the domain layer: on a hit the fetch function is never
// invoked, on a miss concurrent callers are coalesced and the result
// is cached with the configured TTL.
//
//	client, err := apicache.Fetch(ctx, s, "client", "5", 0,
//	    func(ctx context.Context) (Client, error) {
//	        return api.FetchClient(ctx, "5")
//	    })
package apicache
