// Package pkg holds the skyavatar libraries.
//
// # Overview
//
// Skyavatar composes a Bluesky avatar from a handful of parameters and
// publishes it as the account's profile picture, keeping every published
// avatar in an archive collection on the account's own repository.
//
//  1. [avatar] - Parameters, validation, the shape table and archive records
//  2. [render] - Path parsing, rasterization and layer composition
//  3. [publish] - The cooldown-gated upload, profile update and archive append
//  4. [archive] - Paginated reads of the archive collection
//  5. [pipeline] - Orchestration (validate → render → publish) with caching
//  6. [atproto] - The XRPC client for the account's repository service
//
// Supporting packages: [cache], [config], [draft], [journal], [session],
// [observability], [errors], [httputil] and [buildinfo].
//
// # Architecture
//
//	avatar.Params
//	      ↓
//	 [pipeline] validate, look up the artifact cache
//	      ↓
//	 [render] background → rotated shape → eyes → mouth → PNG
//	      ↓
//	 [publish] cooldown check → uploadBlob → putRecord(profile) → createRecord(archive)
//	      ↓
//	 PNG bytes + archive record
//
// [avatar]: github.com/nornoe/skyavatar/pkg/avatar
// [render]: github.com/nornoe/skyavatar/pkg/render
// [publish]: github.com/nornoe/skyavatar/pkg/publish
// [archive]: github.com/nornoe/skyavatar/pkg/archive
// [pipeline]: github.com/nornoe/skyavatar/pkg/pipeline
// [atproto]: github.com/nornoe/skyavatar/pkg/atproto
// [cache]: github.com/nornoe/skyavatar/pkg/cache
// [config]: github.com/nornoe/skyavatar/pkg/config
// [draft]: github.com/nornoe/skyavatar/pkg/draft
// [journal]: github.com/nornoe/skyavatar/pkg/journal
// [session]: github.com/nornoe/skyavatar/pkg/session
// [observability]: github.com/nornoe/skyavatar/pkg/observability
// [errors]: github.com/nornoe/skyavatar/pkg/errors
// [httputil]: github.com/nornoe/skyavatar/pkg/httputil
// [buildinfo]: github.com/nornoe/skyavatar/pkg/buildinfo
package pkg
