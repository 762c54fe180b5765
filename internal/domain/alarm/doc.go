// Package alarm contains core domain types for the alarm business logic.
//
// It defines Alarm (a time-of-day alarm), Time (the hour/minute pair it fires
// at), Patch (a partial update), Draft (an alarm to create) and SleepSchedule
// (a bedtime/wake-up pair), with Clone helpers to avoid leaking internal
// references.
package alarm
