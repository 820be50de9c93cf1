// Package record defines the to-do Record persisted by the encrypted store
// and the helpers every other package shares: validation, the stable JSON
// codec, and id generation.
//
// This package imports only keyscheme internally, so the store, projection
// and controller layers can all depend on it without cycles.
//
// Key design constraints:
//   - JSON field names are exactly id, text, checked, date (on-disk format)
//   - Text is NFC normalized before it is persisted
//   - Ids never contain the key separator
package record
