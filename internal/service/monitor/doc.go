// Package monitor runs the background loop that fires alarms.
//
// A Monitor wakes up on a cron schedule (every 30 seconds by default), reads
// the local clock, takes a snapshot of the alarms and calls the trigger for
// every active alarm set to the current hour and minute. An alarm fires at
// most once per minute even when the schedule ticks more often. A panicking
// or failing trigger is logged and never stops the loop.
//
// Stop cancels the loop and waits for it to exit, so no trigger runs after
// Stop returns.
package monitor
