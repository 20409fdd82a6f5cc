// Package file keeps askdocs configuration on the local filesystem.
//
// ConfigStore reads and writes config.toml as nested TOML tables and
// exposes them as flat dotted keys. PromptStore serves the synthesizer
// prompts from a directory the user may edit, seeded from the templates
// embedded under defaults/.
package file
