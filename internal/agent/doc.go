// Package agent implements the reasoning loop and the action queue that
// binds every producer in the daemon to its single consumer.
//
// Actions flow one way: samplers, the scheduler, and the control API enqueue;
// the Loop drains. Each cycle the Loop detaches the queue's current contents
// atomically, dispatches every action through a static kind-to-handler table,
// runs whichever behaviors are due on their own absolute timers, synthesizes
// a thought, and recomputes the activity score. Handler failures are logged
// and absorbed; only a stop request ends the loop, and never mid-drain.
package agent
