// Package config loads, normalizes, and validates deliver configuration.
//
// Two layers exist:
//
//   - The project file (deliver.yaml, deliver.yml or deliver.json in the
//     project root) describes the tree being packaged: where sources live,
//     where deliverables are written, the clean command, and optional
//     per-part selection overrides. JSON files may contain comments
//     (JSONC), stripped with github.com/tidwall/jsonc before decoding.
//   - The user file ($XDG_CONFIG_HOME/deliver/config.toml) holds personal
//     presentation settings such as log level and colour.
//
// Both layers fall back to built-in defaults when no file exists, so a
// bare project with a src/ directory works without any configuration.
package config
