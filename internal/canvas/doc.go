// Package canvas is a headless drawing engine: it turns drawing actions into a
// display list of rendered operations that a UI (or the browser bridge) can
// replay.
package canvas
