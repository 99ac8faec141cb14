// Package workspace manages working directories for generation runs, supporting
// both ephemeral (uuid-named) and persistent (fixed-path) modes.
//
// Ephemeral mode creates uuid-named directories (e.g., structgen-3f1a2b4c-...)
// unique per run, registering their removal with the cleanup registry before
// creation so every workspace is removed when the process drains its exit
// actions, even if the run aborted halfway.
//
// Persistent mode uses a fixed directory path (e.g., /data/structgen/working)
// that persists across runs, enabling incremental regeneration in watch mode.
package workspace
