// Package favsync is the client-side favorite synchronization engine.
//
// A toggle flows through four pieces:
//   - the Resolver (IsFavorite) answers membership from the local Cache;
//   - the Controller guards one in-flight mutation per key, writes the expected
//     state to the Cache optimistically and calls the remote favoritestore.Store;
//   - on success the optimistic state stays; on failure only the toggled key's
//     membership is rolled back; on session expiry the whole entry is cleared;
//   - the Engine exposes UI-facing views (Membership, ToggleState, List) and
//     change notifications.
package favsync
