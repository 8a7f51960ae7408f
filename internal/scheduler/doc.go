// Package scheduler turns cron-style job definitions into queued actions.
//
// The scheduler never executes work itself: when a job's schedule matches the
// current minute it enqueues an action of the job's kind and moves on. The
// reasoning loop is the only executor. Jobs with malformed schedules are
// warned about once at construction and never fire.
package scheduler
