// Package domain models the reference data and events of the map guessing game.
//
// # Locations
//
// A location is a guessable country identified by its ISO 3166-1 alpha-3
// code ("CAN", "BRA"). The catalog is loaded once per process from a JSON
// array:
//
//	[{"code": "CAN", "name": "Canada"},
//	 {"code": "GBR", "name": "United Kingdom", "aliases": ["UK", "Britain"]}]
//
// Codes are canonicalised to upper case and must be unique. Display names
// and aliases feed the guess resolver.
//
// # Layer kinds
//
// Per-location datasets are split into five layer kinds: outline, rivers,
// cities, roads and elevation. Datasets live under
// "<base>/<CODE>/<file>.geojson"; see [LayerKind] for the canonical order,
// which is also the order the reveal schedule and the API report them in.
//
// # Round events
//
// When a round finishes, a [RoundEvent] is emitted to the configured
// [EventPublisher]. Events carry the session id, target code, guesses
// tried and the result, and are timestamped with the package clock so
// tests can freeze time via [SetClock].
package domain
