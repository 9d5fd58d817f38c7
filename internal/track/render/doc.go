// Package render turns tracking snapshots and finished runs into
// images and reports. It is strictly downstream of the tracker: every
// function consumes a read-only snapshot or Result and holds no state
// across calls, so a render failure can never influence tracking
// decisions.
package render
