// Package widget turns dashboard widget definitions into scheduler tasks.
//
// Each widget becomes one task with id "{type}-{widgetID}". The task's
// execute function calls the health checker, the feed client or the weather
// client; its results are published to the store and, for health and TCP
// widgets, recorded in the health history under the task id.
//
// Widgets that target the same resource share a dedupe key so they poll at
// the same cadence.
package widget
